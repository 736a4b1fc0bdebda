package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/wesleyorama2/rohan/internal/llm"
)

// Kind classifies a per-item or run-level failure.
type Kind string

const (
	KindTemplate  Kind = "TemplateError"
	KindTransport Kind = "TransportError"
	KindService   Kind = "ServiceError"
	KindParse     Kind = "ParseError"
	KindSink      Kind = "SinkError"
	KindIO        Kind = "IOError"
	KindCanceled  Kind = "Canceled"
)

// Error is a classified failure. Item is empty for run-level errors.
type Error struct {
	Kind Kind
	Item string
	Err  error
}

func (e *Error) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Item, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, item string, err error) *Error {
	return &Error{Kind: kind, Item: item, Err: err}
}

// classify maps an error from the prompt/completion/parse path to a Kind.
func classify(item string, err error) *Error {
	var gErr *Error
	if errors.As(err, &gErr) {
		return &Error{Kind: gErr.Kind, Item: item, Err: gErr.Err}
	}

	var svcErr *llm.ServiceError
	var tErr *llm.TransportError
	switch {
	case errors.As(err, &svcErr):
		return newError(KindService, item, err)
	case errors.As(err, &tErr):
		return newError(KindTransport, item, err)
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, item, err)
	default:
		return newError(KindTransport, item, err)
	}
}

// completionError classifies a failure on the completion path. Once ctx is
// done the item is Canceled, whatever error the call surfaced.
func completionError(ctx context.Context, item string, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return newError(KindCanceled, item, ctxErr)
	}
	return classify(item, err)
}

// IsKind reports whether err is a generator *Error of kind k.
func IsKind(err error, k Kind) bool {
	var gErr *Error
	return errors.As(err, &gErr) && gErr.Kind == k
}
