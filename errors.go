package sqlops

import "errors"

// Sentinel errors returned by the builders and loaders.
var (
	ErrFunctionNameNotFound = errors.New("function name not found")
	ErrIrreversible         = errors.New("operation is irreversible")
)
