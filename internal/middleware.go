package internal

import (
	"time"

	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/ctxhelper"
)

// LogCalls is a middleware writing a debug line for every endpoint call and an error line for every failed one
func LogCalls(name string) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			logger := ctxhelper.Logger(ctx).WithField("endpoint", name)
			defer func(begin time.Time) {
				logger = logger.WithField("took", time.Since(begin).String())
				if err != nil {
					logger.WithError(err).Warn("Endpoint call failed")
					return
				}
				logger.Debug("Endpoint called")
			}(time.Now())
			return next(ctx, request)
		}
	}
}
