package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-billing/internal/billing"
	"parking-billing/internal/parking"
)

// StatsSource reports the current lot occupancy.
type StatsSource interface {
	Stats(ctx context.Context) parking.Stats
}

// Metrics owns the Prometheus registry served on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	billsTotal     prometheus.Counter
	revenueTotal   prometheus.Counter
	ledgerFailures prometheus.Counter
	stayMinutes    prometheus.Histogram
}

func New(lot StatsSource) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		billsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parking_bills_total",
			Help: "Total number of bills generated.",
		}),
		revenueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parking_revenue_total",
			Help: "Sum of billed totals, fee plus additional charge.",
		}),
		ledgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parking_ledger_write_failures_total",
			Help: "Bills that could not be appended to the ledger.",
		}),
		stayMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parking_stay_minutes",
			Help:    "Billed stay length in minutes.",
			Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 1440},
		}),
	}

	m.Registry.MustRegister(
		m.billsTotal,
		m.revenueTotal,
		m.ledgerFailures,
		m.stayMinutes,
		newLotCollector(lot),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) ObserveBill(b billing.Bill) {
	m.billsTotal.Inc()
	if b.Total > 0 {
		m.revenueTotal.Add(b.Total)
	}
	m.stayMinutes.Observe(b.Duration().Minutes())
}

func (m *Metrics) ObserveLedgerFailure() {
	m.ledgerFailures.Inc()
}

type lotCollector struct {
	lot       StatsSource
	total     *prometheus.Desc
	occupied  *prometheus.Desc
	available *prometheus.Desc
}

func newLotCollector(lot StatsSource) *lotCollector {
	return &lotCollector{
		lot:       lot,
		total:     prometheus.NewDesc("parking_lot_slots", "Total number of parking slots.", nil, nil),
		occupied:  prometheus.NewDesc("parking_lot_slots_occupied", "Occupied parking slots.", nil, nil),
		available: prometheus.NewDesc("parking_lot_slots_available", "Free parking slots.", nil, nil),
	}
}

func (c *lotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.occupied
	ch <- c.available
}

func (c *lotCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.lot.Stats(context.Background())
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stats.Total))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(stats.Occupied))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(stats.Available))
}
