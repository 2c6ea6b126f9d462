package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Input decoding errors
//   - E2xxx: Lowering errors
type ErrorCode string

const (
	// Input errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unknown statement
	E1002 ErrorCode = "E1002" // Malformed statement
	E1003 ErrorCode = "E1003" // Missing field
	E1004 ErrorCode = "E1004" // Duplicate function

	// Lowering errors (E2xxx)
	E2003 ErrorCode = "E2003" // Invalid break statement
	E2004 ErrorCode = "E2004" // Invalid continue statement
	E2011 ErrorCode = "E2011" // Undefined label
	E2012 ErrorCode = "E2012" // Goto into a cleanup scope
	E2013 ErrorCode = "E2013" // Unresolved goto
	E2014 ErrorCode = "E2014" // Duplicate label
	E2015 ErrorCode = "E2015" // Conflicting declaration
)

var codeDescriptions = map[ErrorCode]string{
	E1001: "unknown statement",
	E1002: "malformed statement",
	E1003: "missing field",
	E1004: "duplicate function",
	E2003: "invalid break statement",
	E2004: "invalid continue statement",
	E2011: "undefined label",
	E2012: "goto into cleanup scope",
	E2013: "unresolved goto",
	E2014: "duplicate label",
	E2015: "conflicting declaration",
}

// Description returns a short description of the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return ""
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}
