package requestid

import "context"

type contextKey struct{}

// WithContext stores id in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id or "".
func FromContext(ctx context.Context) string {
	id, _ := Lookup(ctx)
	return id
}

// Lookup reports the request id and whether one is set. Its signature matches
// the audit logger's request id extractor.
func Lookup(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
