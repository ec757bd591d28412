package excmd

import (
	"errors"
	"fmt"
)

// ErrorCode classifies Ex errors. Values are Vim's error numbers so messages
// read the way Vim users expect.
type ErrorCode int

// Error codes.
const (
	InvalidRange           ErrorCode = 16
	MarkNotSet             ErrorCode = 20
	NoFileName             ErrorCode = 32
	NoPreviousRegex        ErrorCode = 35
	NoWriteSinceLastChange ErrorCode = 37
	PartialWrite           ErrorCode = 140
	MarkNameInvalid        ErrorCode = 191
	NotAvailable           ErrorCode = 319
	NothingInRegister      ErrorCode = 353
	InvalidRegisterName    ErrorCode = 354
	InvalidPattern         ErrorCode = 383
	ArgumentRequired       ErrorCode = 471
	InvalidArgument        ErrorCode = 474
	NoBangAllowed          ErrorCode = 477
	PatternNotFound        ErrorCode = 486
	TrailingCharacters     ErrorCode = 488
	NotAnEditorCommand     ErrorCode = 492
	BackwardsRange         ErrorCode = 493
)

var messages = map[ErrorCode]string{
	InvalidRange:           "Invalid range",
	MarkNotSet:             "Mark not set",
	NoFileName:             "No file name",
	NoPreviousRegex:        "No previous regular expression",
	NoWriteSinceLastChange: "No write since last change (add ! to override)",
	PartialWrite:           "Use ! to write partial buffer",
	MarkNameInvalid:        "Argument must be a letter or forward/backward quote",
	NotAvailable:           "Sorry, the command is not available in this version",
	NothingInRegister:      "Nothing in register",
	InvalidRegisterName:    "Invalid register name",
	InvalidPattern:         "Invalid search string",
	ArgumentRequired:       "Argument required",
	InvalidArgument:        "Invalid argument",
	NoBangAllowed:          "No ! allowed",
	PatternNotFound:        "Pattern not found",
	TrailingCharacters:     "Trailing characters",
	NotAnEditorCommand:     "Not an editor command",
	BackwardsRange:         "Backwards range given",
}

// Error is an Ex parse or execution error.
type Error struct {
	Code   ErrorCode
	Detail string
}

// NewError creates an Error.
func NewError(code ErrorCode, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Error renders the Vim style message, e.g. "E492: Not an editor command: foo".
func (e *Error) Error() string {
	msg, ok := messages[e.Code]
	if !ok {
		msg = "Unknown error"
	}
	if e.Detail != "" {
		return fmt.Sprintf("E%d: %s: %s", e.Code, msg, e.Detail)
	}
	return fmt.Sprintf("E%d: %s", e.Code, msg)
}

// Is matches another *Error with the same code, so errors.Is works with
// code-only targets such as &Error{Code: NotAnEditorCommand}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the code from an Ex error anywhere in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var exErr *Error
	if errors.As(err, &exErr) {
		return exErr.Code, true
	}
	return 0, false
}
