package obs

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics groups the billing-specific Prometheus collectors. A nil value records nothing.
type DomainMetrics struct {
	TaxQuotes     *prometheus.CounterVec
	QuoteDuration *prometheus.HistogramVec
	InvoicesTotal *prometheus.CounterVec
	ConfigCache   *prometheus.CounterVec
	ConfigUpdates prometheus.Counter
	RowsPurged    *prometheus.CounterVec
	RateLimited   *prometheus.CounterVec
}

// NewDomainMetrics registers billing collectors on reg, reusing collectors that are already registered.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		TaxQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_quotes_total",
			Help:      "Count of tax quote computations by jurisdiction and outcome.",
		}, []string{"jurisdiction", "result"}),
		QuoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tax_quote_duration_ms",
			Help:      "Latency of quote computations including configuration lookup, in milliseconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}, []string{"jurisdiction"}),
		InvoicesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Count of invoices persisted by jurisdiction.",
		}, []string{"jurisdiction"}),
		ConfigCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_config_cache_total",
			Help:      "Tax configuration cache lookups by result.",
		}, []string{"result"}),
		ConfigUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_config_updates_total",
			Help:      "Number of store tax configuration updates.",
		}),
		RowsPurged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_rows_purged_total",
			Help:      "Rows removed by the retention sweeper by table.",
		}, []string{"table"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter, by limiter.",
		}, []string{"limiter"}),
	}
	m.TaxQuotes = register(reg, m.TaxQuotes)
	m.QuoteDuration = register(reg, m.QuoteDuration)
	m.InvoicesTotal = register(reg, m.InvoicesTotal)
	m.ConfigCache = register(reg, m.ConfigCache)
	m.ConfigUpdates = register(reg, m.ConfigUpdates)
	m.RowsPurged = register(reg, m.RowsPurged)
	m.RateLimited = register(reg, m.RateLimited)
	return m
}

// Quote records a quote outcome and its latency.
func (m *DomainMetrics) Quote(jurisdiction, result string, millis float64) {
	if m == nil {
		return
	}
	jurisdiction = labelOrUnknown(jurisdiction)
	m.TaxQuotes.WithLabelValues(jurisdiction, result).Inc()
	if result == "ok" {
		m.QuoteDuration.WithLabelValues(jurisdiction).Observe(millis)
	}
}

// InvoiceCreated counts a persisted invoice.
func (m *DomainMetrics) InvoiceCreated(jurisdiction string) {
	if m == nil {
		return
	}
	m.InvoicesTotal.WithLabelValues(labelOrUnknown(jurisdiction)).Inc()
}

// Limited counts a request rejected by the named limiter.
func (m *DomainMetrics) Limited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(limiter).Inc()
}

// Purged adds n rows removed from table.
func (m *DomainMetrics) Purged(table string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsPurged.WithLabelValues(table).Add(float64(n))
}

// CacheLookup counts a configuration cache lookup by result.
func (m *DomainMetrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.ConfigCache.WithLabelValues(result).Inc()
}

// ConfigUpdated counts a configuration write.
func (m *DomainMetrics) ConfigUpdated() {
	if m == nil {
		return
	}
	m.ConfigUpdates.Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// register adds c to reg. When an equivalent collector is already registered,
// as happens when two routers share the default registry, that one is returned.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(fmt.Errorf("register metric: %w", err))
}
