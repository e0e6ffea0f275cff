package ops

import "fmt"

// Error は送信前の入力検証で発生したエラーを表します。
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeLimitExceeded   = "LIMIT_EXCEEDED"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeUnsupportedPDF  = "UNSUPPORTED_PDF"
)

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
