package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/crytic/tenet/fuzzing/config"
	"github.com/crytic/tenet/logging"
	"github.com/crytic/tenet/logging/colors"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// loadProjectConfig resolves the project configuration of a command with a --config flag:
// #1: If --config was used, the file it names is read. A missing or unreadable file is an error.
// #2: Otherwise, tenet.json is read from the working directory if it exists.
// #3: If neither exists, the default project configuration is used.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If --config was not used, look for `tenet.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	_, existenceError := os.Stat(configPath)
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		return config.ReadProjectConfigFromFile(configPath)
	}
	if configFlagUsed {
		return nil, errors.Wrapf(existenceError, "could not find the config file at %v", configPath)
	}

	cmdLogger.Warn(fmt.Sprintf("Unable to find the config file at %v, will use the default project configuration instead", configPath))
	return config.GetDefaultProjectConfig(), nil
}

// configureGlobalLogger replaces the GlobalLogger with one following the logging configuration. If a log directory
// is configured, structured log events are additionally written to a new file inside it.
// Returns a function releasing the log file, or an error if the file could not be created.
func configureGlobalLogger(loggingConfig config.LoggingConfig) (func(), error) {
	logging.GlobalLogger = logging.NewLogger(loggingConfig.Level, loggingConfig.EnableConsoleLogging)
	if loggingConfig.LogDirectory == "" {
		return func() {}, nil
	}

	if err := utils.MakeDirectory(loggingConfig.LogDirectory); err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("log-%d.json", time.Now().Unix())
	file, err := os.Create(filepath.Join(loggingConfig.LogDirectory, fileName))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	logging.GlobalLogger.AddWriter(file, logging.STRUCTURED)

	return func() {
		logging.GlobalLogger.RemoveWriter(file)
		_ = file.Close()
	}, nil
}

// unusedFlags returns the flags of cmd that have not been set on the current command line, prefixed with "--", for
// dynamic completion.
func unusedFlags(cmd *cobra.Command) []string {
	var unused []string
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			// The "--" prefix marks the suggestion as a flag rather than a positional argument
			unused = append(unused, "--"+flag.Name)
		}
	})
	return unused
}
