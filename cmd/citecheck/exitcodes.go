package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config)
	ExitDataError   = 3 // Data error (unreadable input, no citations detected)
	ExitExportError = 4 // Report could not be written
)
