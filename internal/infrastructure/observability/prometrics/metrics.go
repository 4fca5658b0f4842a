package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/observability"
)

// Registry creates prometheus vectors once per name and exposes them through the observability ports.
type Registry struct {
	reg        prometheus.Registerer
	namespace  string
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
}

// New returns a Registry that registers into reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{reg: reg, namespace: namespace}
}

type counter struct{ v *prometheus.CounterVec }

// Add drops the sample when the label set does not match the vector.
func (c *counter) Add(d float64, labels ...observability.Label) {
	if m, err := c.v.GetMetricWith(labelMap(labels)); err == nil {
		m.Add(d)
	}
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	if m, err := h.v.GetMetricWith(labelMap(labels)); err == nil {
		m.Observe(v)
	}
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *Registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labelKeys)
	actual, loaded := r.counters.LoadOrStore(name, cv)
	if !loaded {
		r.reg.MustRegister(cv)
	}
	return &counter{v: actual.(*prometheus.CounterVec)}
}

func (r *Registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	actual, loaded := r.histograms.LoadOrStore(name, hv)
	if !loaded {
		r.reg.MustRegister(hv)
	}
	return &histogram{v: actual.(*prometheus.HistogramVec)}
}

// Standard registers every instrument the use cases and HTTP layer record into.
func (r *Registry) Standard() (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Calls to collaborators outside the process.", "peer", "endpoint", "outcome"),
		observability.MStockReservationLines: r.Counter(string(observability.MStockReservationLines),
			"Cart lines processed by the stock ledger.", "outcome"),
		observability.MInvoiceConflicts: r.Counter(string(observability.MInvoiceConflicts),
			"Invoice numbers rejected because another order already holds them."),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Duration of calls to external collaborators in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
	}
	return counters, histograms
}
