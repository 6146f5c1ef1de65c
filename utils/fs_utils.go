package utils

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MakeDirectory creates a directory and any missing parents. An existing directory is not an error.
func MakeDirectory(dirToMake string) error {
	info, err := os.Stat(dirToMake)
	if err == nil {
		if !info.IsDir() {
			return errors.Errorf("'%s' exists and is not a directory", dirToMake)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.MkdirAll(dirToMake, 0755))
}

// WriteFileInDirectory writes data to fileName inside directory, creating the directory if needed. Returns the path of
// the written file.
func WriteFileInDirectory(directory string, fileName string, data []byte) (string, error) {
	if err := MakeDirectory(directory); err != nil {
		return "", err
	}
	path := filepath.Join(directory, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.WithStack(err)
	}
	return path, nil
}
