package arith

import "fmt"

// CodeBadRequest is the error code reported for rejected operands.
const CodeBadRequest = 400

// Error is a typed error descriptor returned by the arithmetic operations.
// It is surfaced to callers as {code, message}.
type Error struct {
	Code    int    `json:"code" jsonschema:"numeric error code"`
	Message string `json:"message" jsonschema:"human-readable error message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

var (
	ErrDivisionByZero  = &Error{Code: CodeBadRequest, Message: "Division by zero is not allowed."}
	ErrIntegerOverflow = &Error{Code: CodeBadRequest, Message: "Integer overflow."}
)
