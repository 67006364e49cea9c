package server

import (
	"runtime/debug"

	"github.com/Brownie44l1/docserver/internal/request"
	"github.com/Brownie44l1/docserver/internal/resource"
	"github.com/Brownie44l1/docserver/internal/response"
)

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(req *request.Request) *resource.Result

func (f ResolverFunc) Resolve(req *request.Request) *resource.Result {
	return f(req)
}

// Middleware wraps a Resolver
type Middleware func(next Resolver) Resolver

// Chain wraps r so the first middleware listed runs outermost
func Chain(r Resolver, mws ...Middleware) Resolver {
	for i := len(mws) - 1; i >= 0; i-- {
		r = mws[i](r)
	}
	return r
}

// RecoveryMiddleware turns a resolver panic into a 500 that closes the
// connection
func RecoveryMiddleware(logger Logger) Middleware {
	return func(next Resolver) Resolver {
		return ResolverFunc(func(req *request.Request) (res *resource.Result) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						Field{"error", err},
						Field{"stack", string(debug.Stack())},
						Field{"method", req.Method},
						Field{"path", req.Path},
					)
					res = &resource.Result{Status: response.StatusInternalServerError}
				}
			}()

			return next.Resolve(req)
		})
	}
}
