package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OTPCollector bundles the Prometheus metrics of the one-time-code service
type OTPCollector struct {
	gatherer prometheus.Gatherer

	Requests      *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec
}

// NewOTPCollector registers OTP metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewOTPCollector(reg prometheus.Registerer) (*OTPCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_requests_total",
		Help: "Code requests, labeled by delivery channel and outcome.",
	}, []string{"channel", "outcome"}), "otp_requests_total")
	if err != nil {
		return nil, err
	}

	verifications, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_verifications_total",
		Help: "Code verifications, labeled by outcome.",
	}, []string{"outcome"}), "otp_verifications_total")
	if err != nil {
		return nil, err
	}

	limited, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_rate_limited_total",
		Help: "Requests rejected by the per-IP limiters, labeled by limiter.",
	}, []string{"limiter"}), "otp_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &OTPCollector{
		gatherer:      gatherer,
		Requests:      requests,
		Verifications: verifications,
		RateLimited:   limited,
	}, nil
}

// ObserveRequest counts a code request
func (c *OTPCollector) ObserveRequest(channel, outcome string) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(channel, outcome).Inc()
}

// ObserveVerification counts a verification attempt
func (c *OTPCollector) ObserveVerification(outcome string) {
	if c == nil {
		return
	}
	c.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveRateLimited counts a limiter rejection
func (c *OTPCollector) ObserveRateLimited(limiter string) {
	if c == nil {
		return
	}
	c.RateLimited.WithLabelValues(limiter).Inc()
}

// Handler exposes a ready-to-use /metrics handler
func (c *OTPCollector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
