package pantry

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes errors returned by the engine. Callers branch on the kind
// to choose between a missing-ingredient prompt, a misconfigured-recipe
// message or a restock hint.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindConversionExists  Kind = "conversion_exists"
	KindStaleWrite        Kind = "stale_write"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnknownConversion Kind = "unknown_conversion"
	KindUnknownIngredient Kind = "unknown_ingredient"
	KindInvalidFactor     Kind = "invalid_factor"
	KindInvalidArgument   Kind = "invalid_argument"
)

// Sentinels for errors.Is. ErrConflict also matches ConversionExists and
// StaleWrite errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrConversionExists  = errors.New("conversion already exists")
	ErrStaleWrite        = errors.New("inventory changed concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownConversion = errors.New("unknown conversion")
	ErrUnknownIngredient = errors.New("unknown ingredient")
	ErrInvalidFactor     = errors.New("invalid conversion factor")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var kindSentinels = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindConflict:          ErrConflict,
	KindConversionExists:  ErrConversionExists,
	KindStaleWrite:        ErrStaleWrite,
	KindInsufficientStock: ErrInsufficientStock,
	KindUnknownConversion: ErrUnknownConversion,
	KindUnknownIngredient: ErrUnknownIngredient,
	KindInvalidFactor:     ErrInvalidFactor,
	KindInvalidArgument:   ErrInvalidArgument,
}

// Error is the structured error returned by every pantry operation.
type Error struct {
	Kind Kind

	// Op names the operation that failed, e.g. "cook".
	Op string

	// Ingredient and Unit identify the offending pair when relevant.
	Ingredient string
	Unit       string

	// Message is a human-readable description.
	Message string

	// Shortfalls lists every ingredient that blocked a cook.
	Shortfalls []Shortfall

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(kindSentinels[e.Kind].Error())
	}
	if e.Ingredient != "" && e.Unit != "" {
		fmt.Fprintf(&b, " (ingredient=%s, unit=%s)", e.Ingredient, e.Unit)
	} else if e.Ingredient != "" {
		fmt.Fprintf(&b, " (ingredient=%s)", e.Ingredient)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	if target == kindSentinels[e.Kind] {
		return true
	}
	return target == ErrConflict && (e.Kind == KindConversionExists || e.Kind == KindStaleWrite)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// did not originate in this package.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether resubmitting the same request may succeed.
func IsRetryable(err error) bool {
	return KindOf(err) == KindStaleWrite
}

func newError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func invalidArgument(op, format string, args ...any) *Error {
	return newError(KindInvalidArgument, op, fmt.Sprintf(format, args...))
}

func notFound(op, format string, args ...any) *Error {
	return newError(KindNotFound, op, fmt.Sprintf(format, args...))
}
