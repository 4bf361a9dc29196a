package iracelog

import (
	"context"

	"connectrpc.com/connect"
)

const tokenHeader = "api-token"

type tokenInjector struct {
	token string
}

func newTokenInterceptor(token string) connect.Interceptor {
	return &tokenInjector{token: token}
}

//nolint:whitespace // better readability
func (i *tokenInjector) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			req.Header().Set(tokenHeader, i.token)
		}
		return next(ctx, req)
	})
}

//nolint:whitespace // editor/linter
func (i *tokenInjector) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return connect.StreamingClientFunc(func(
		ctx context.Context,
		spec connect.Spec,
	) connect.StreamingClientConn {
		conn := next(ctx, spec)
		conn.RequestHeader().Set(tokenHeader, i.token)
		return conn
	})
}

//nolint:whitespace // editor/linter
func (i *tokenInjector) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return next
}
