package catalog

import "github.com/prometheus/client_golang/prometheus"

// Metrics are catalog level series. A nil *Metrics records nothing.
type Metrics struct {
	Mutations *prometheus.CounterVec
	PageSize  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer, store Store) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Product mutations by operation and outcome",
			},
			[]string{"op", "result"},
		),
		PageSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_list_page_size",
				Help:    "Number of products returned per list call",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
	}

	products := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently stored",
		},
		func() float64 { return float64(store.Len()) },
	)

	reg.MustRegister(m.Mutations, m.PageSize, products)
	return m
}

func (m *Metrics) mutation(op string, found bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !found {
		result = "not_found"
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) listed(n int) {
	if m == nil {
		return
	}
	m.PageSize.Observe(float64(n))
}
