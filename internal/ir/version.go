package ir

// Version constants for the state format and the tool.
const (
	// StateVersion is the canonical state format version.
	StateVersion = "1"

	// ToolVersion is the normstate version.
	ToolVersion = "0.1.0"
)
