package logging

// Values of the "module" key attached to each package's sub-logger.
const (
	// FUZZER_SERVICE identifies the campaign orchestration in the fuzzing package
	FUZZER_SERVICE = "fuzzer"
	// CAMPAIGN_SERVICE identifies a single invariant campaign
	CAMPAIGN_SERVICE = "campaign"
	// BACKEND_SERVICE identifies an execution backend
	BACKEND_SERVICE = "backend"
	// CLI_SERVICE identifies the cmd package
	CLI_SERVICE = "cli"
)
