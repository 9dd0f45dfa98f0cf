// Package query contains the building blocks of the read side: Queries
// asking the Read Models for bookings and sleeping accommodations, and
// the Handlers answering them.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/message"
)

// Query is a request for information to a Read Model, named in the imperative
// present tense, e.g. "ListBookings".
type Query message.Message

// Envelope carries a Query together with the Metadata of the request,
// such as its correlation id.
type Envelope[T Query] message.Envelope[T]

// Handler answers a specific kind of Query with a result of type R.
//
// Handlers only read: they never append Domain Events.
type Handler[T Query, R any] interface {
	Handle(ctx context.Context, query Envelope[T]) (R, error)
}

// ToEnvelope wraps a Query into an Envelope with the specified Metadata.
func ToEnvelope[T Query](query T, metadata ...message.Metadata) Envelope[T] {
	var md message.Metadata

	for _, m := range metadata {
		for key, value := range m {
			md = md.With(key, value)
		}
	}

	return Envelope[T]{
		Message:  query,
		Metadata: md,
	}
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc[T Query, R any] func(ctx context.Context, query Envelope[T]) (R, error)

// Handle implements query.Handler.
func (f HandlerFunc[T, R]) Handle(ctx context.Context, query Envelope[T]) (R, error) {
	return f(ctx, query)
}

// Logged decorates a Handler by logging every answered Query, along with
// the time spent answering it.
//
// Errors are logged and returned wrapped with the Query name.
type Logged[T Query, R any] struct {
	Handler Handler[T, R]
	Logger  logger.Logger
}

// Handle implements query.Handler.
func (h Logged[T, R]) Handle(ctx context.Context, query Envelope[T]) (R, error) {
	start := time.Now()
	name := query.Message.Name()

	result, err := h.Handler.Handle(ctx, query)

	fields := []logger.Field{
		logger.With("query", name),
		logger.With("elapsed", time.Since(start).String()),
	}

	if err != nil {
		logger.Error(h.Logger, "Query failed", append(fields, logger.Err(err))...)
		return result, fmt.Errorf("query.%s: %w", name, err)
	}

	logger.Debug(h.Logger, "Query answered", fields...)

	return result, nil
}
