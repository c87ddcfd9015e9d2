package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file, unknown adapter)
	ExitDataError   = 3 // Data error (unparseable bibliography or entry, invalid PDF)
	ExitDuplicate   = 4 // Entry identifier already present
)
