package http

import (
	"context"
	"io"
)

// NewContext returns a new Context that carries request-scoped logging data.
func NewContext(ctx context.Context, logOutput io.Writer, requestID string) context.Context {
	return context.WithValue(ctx, valueKey, contextValue{
		logOutput: logOutput,
		requestID: requestID,
	})
}

// LogOutputFromContext returns the log output stored in ctx, if any.
func LogOutputFromContext(ctx context.Context) io.Writer {
	v, _ := ctx.Value(valueKey).(contextValue)
	return v.logOutput
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(valueKey).(contextValue)
	return v.requestID
}

type contextValue struct {
	logOutput io.Writer
	requestID string
}

type contextKey int

const valueKey contextKey = 0
