package mid

import (
	"context"
	"net/http"

	"github.com/minichain/node/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the counters the middleware maintains. The values are served
// by the promhttp handler mounted on the debug mux.
var metrics = struct {
	requests prometheus.Counter
	errors   prometheus.Counter
	panics   prometheus.Counter
}{
	requests: promauto.NewCounter(prometheus.CounterOpts{
		Name: "node_http_requests_total",
		Help: "Number of HTTP requests processed.",
	}),
	errors: promauto.NewCounter(prometheus.CounterOpts{
		Name: "node_http_request_errors_total",
		Help: "Number of HTTP requests that ended in an error.",
	}),
	panics: promauto.NewCounter(prometheus.CounterOpts{
		Name: "node_http_request_panics_total",
		Help: "Number of HTTP requests that panicked.",
	}),
}

// Metrics updates the request counters.
func Metrics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			metrics.requests.Inc()

			err := handler(ctx, w, r)
			if err != nil {
				metrics.errors.Inc()
			}

			return err
		}

		return h
	}

	return m
}
