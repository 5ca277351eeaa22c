package domain

import "context"

// requestMetaKey is the context key for RequestMeta.
type requestMetaKey struct{}

// RequestMeta describes the origin of the request being served.
type RequestMeta struct {
	RequestID     string
	SourceAddress string
	AgentString   string
}

// WithRequestMeta stores meta in ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the RequestMeta stored in ctx, or the zero value.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
