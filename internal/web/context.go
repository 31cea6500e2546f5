package web

import "context"

type contextKey int

const requestIDKey contextKey = iota

// RequestID returns the id assigned to the request by the logging
// middleware.
func RequestID(ctx context.Context) (string, bool) {
	value := ctx.Value(requestIDKey)
	id, ok := value.(string)
	return id, ok
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
