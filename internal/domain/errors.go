package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these so the
// HTTP layer can pick a status code with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrAuthRequired       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrIllegalTransition  = errors.New("illegal transition")
	ErrUpload             = errors.New("upload failed")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrTransaction        = errors.New("transaction failed")
	ErrNetworkMismatch    = errors.New("network mismatch")
)

var kinds = []error{
	ErrValidation, ErrNotFound, ErrAuthRequired, ErrForbidden, ErrIllegalTransition,
	ErrUpload, ErrInvalidFileType, ErrFileTooLarge, ErrWalletNotConnected,
	ErrTransaction, ErrNetworkMismatch,
}

// FileTooLargeMessage is shown for any MOU over the 5 MiB limit.
const FileTooLargeMessage = "Document exceeds the 5 MiB limit"

// Error carries a user-visible message for one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return Errorf(ErrValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return Errorf(ErrNotFound, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return Errorf(ErrForbidden, format, args...)
}

func IllegalTransitionf(format string, args ...any) error {
	return Errorf(ErrIllegalTransition, format, args...)
}

// TransactionError reports a reverted or anomalous on-chain call.
type TransactionError struct {
	Op     string
	TxHash string
	Reason string
	Err    error
}

func (e *TransactionError) Error() string {
	msg := e.Op + ": transaction failed"
	if e.TxHash != "" {
		msg = fmt.Sprintf("%s: transaction %s failed", e.Op, e.TxHash)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransactionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransaction, e.Err}
	}
	return []error{ErrTransaction}
}

// KindOf returns the error kind wrapped by err, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsDomain reports whether err belongs to the taxonomy (as opposed to an infrastructure failure).
func IsDomain(err error) bool {
	return KindOf(err) != nil
}
