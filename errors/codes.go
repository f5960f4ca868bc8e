package errors

// ErrorCode identifies one compile-error condition. The set is closed: the
// compiler rejects guest programs only for the conditions enumerated here,
// and everything else it cannot handle is an internal defect that panics.
//
// Codes are organized by category:
//   - E1xxx: resolve errors (scope analysis)
//   - E2xxx: compile errors (code generation)
type ErrorCode string

const (
	// Resolve errors (E1xxx)
	InvalidAssignTarget  ErrorCode = "E1001" // assignment to a reserved constant name
	StarImportInFunction ErrorCode = "E1002"

	// Compile errors (E2xxx)
	InvalidBreak           ErrorCode = "E2001"
	InvalidContinue        ErrorCode = "E2002"
	InvalidReturn          ErrorCode = "E2003"
	InvalidYield           ErrorCode = "E2004"
	InvalidAwait           ErrorCode = "E2005"
	AsyncYieldFrom         ErrorCode = "E2006"
	MultipleStarredTargets ErrorCode = "E2007"
	TooManyStarredValues   ErrorCode = "E2008"
	InvalidFuturePlacement ErrorCode = "E2009"
	UnknownFutureFeature   ErrorCode = "E2010"
	MatchNotImplemented    ErrorCode = "E2011"
)

var codeDescriptions = map[ErrorCode]string{
	InvalidAssignTarget:  "cannot assign to constant",
	StarImportInFunction: "import * only allowed at module level",

	InvalidBreak:           "'break' outside loop",
	InvalidContinue:        "'continue' outside loop",
	InvalidReturn:          "'return' outside function",
	InvalidYield:           "'yield' outside function",
	InvalidAwait:           "'await' outside async function",
	AsyncYieldFrom:         "'yield from' inside async function",
	MultipleStarredTargets: "multiple starred expressions in assignment",
	TooManyStarredValues:   "too many expressions in star-unpacking assignment",
	InvalidFuturePlacement: "from __future__ imports must occur at the beginning of the file",
	UnknownFutureFeature:   "future feature is not defined",
	MatchNotImplemented:    "match statement is not supported",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "resolve"
	case '2':
		return "compile"
	default:
		return "unknown"
	}
}
