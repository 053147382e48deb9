package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Pipeline errors
	ErrUnknownTask          = fmt.Errorf("unknown task")
	ErrInvalidRange         = fmt.Errorf("invalid date range")
	ErrInvalidDate          = fmt.Errorf("invalid date")
	ErrIncompleteResolution = fmt.Errorf("unresolved files remain")
	ErrUnknownPath          = fmt.Errorf("unknown path")
	ErrUnknownFile          = fmt.Errorf("unknown file")
	ErrInvalidTransition    = fmt.Errorf("invalid stage transition")

	// Storage errors
	ErrReportNotFound = fmt.Errorf("report not found")

	// Collaborator errors
	ErrScriptFailed = fmt.Errorf("script failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
