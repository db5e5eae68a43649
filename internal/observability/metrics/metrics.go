package metrics

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SchedulingMetrics counts RPCs and booking outcomes.
type SchedulingMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookingsTotal   *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotkeeper",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total unary RPCs by method and status code",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slotkeeper",
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of unary RPCs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotkeeper",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome (created, conflict, rejected)",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.bookingsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// UnaryServerInterceptor records every unary RPC under its short method name.
func (m *SchedulingMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.ObserveRequest(path.Base(info.FullMethod), status.Code(err).String(), time.Since(start).Seconds())
		return resp, err
	}
}
