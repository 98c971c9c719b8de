package mcp

import "errors"

// Sentinel errors for classification by callers.
var (
	ErrInvalidTool       = errors.New("invalid tool")
	ErrDuplicateTool     = errors.New("duplicate tool")
	ErrInvalidResource   = errors.New("invalid resource")
	ErrDuplicateResource = errors.New("duplicate resource")
	ErrNoReader          = errors.New("no resource reader registered")
	ErrResourceNotFound  = errors.New("resource not found")

	ErrArgumentCount = errors.New("argument count mismatch")
	ErrArgumentName  = errors.New("argument name mismatch")
)
