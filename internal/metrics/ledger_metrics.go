package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics содержит метрики операций ledger и сессий.
type LedgerMetrics struct {
	// Счётчики операций
	transactionsCreated prometheus.Counter
	transactionsUpdated prometheus.Counter
	transactionsDeleted prometheus.Counter
	stockConflicts      prometheus.Counter

	// Гистограммы времени выполнения
	ledgerDuration prometheus.Histogram
	opDuration     *prometheus.HistogramVec

	// Счётчики сессий
	tokensIssued  prometheus.Counter
	loginFailures prometheus.Counter

	// Gauge для активных сессий
	activeSessions prometheus.Gauge
}

// NewLedgerMetrics создаёт новый экземпляр метрик ledger.
func NewLedgerMetrics() *LedgerMetrics {
	return newLedgerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLedgerMetricsWithRegisterer(registerer prometheus.Registerer) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LedgerMetrics{
		transactionsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_transactions_created_total",
			Help: "Total number of transactions created",
		}),
		transactionsUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_transactions_updated_total",
			Help: "Total number of transactions updated",
		}),
		transactionsDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),
		stockConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_stock_conflicts_total",
			Help: "Total number of ledger mutations rejected due to insufficient stock",
		}),
		ledgerDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "prodhub_ledger_duration_seconds",
			Help:    "Duration of ledger mutations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "prodhub_ledger_operation_duration_seconds",
			Help:    "Duration of individual ledger operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		tokensIssued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_tokens_issued_total",
			Help: "Total number of bearer tokens issued",
		}),
		loginFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "prodhub_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		activeSessions: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "prodhub_active_sessions",
			Help: "Number of currently active bearer sessions",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordTransactionCreated увеличивает счётчик созданных транзакций.
func (m *LedgerMetrics) RecordTransactionCreated() {
	m.transactionsCreated.Inc()
}

// RecordTransactionUpdated увеличивает счётчик обновлённых транзакций.
func (m *LedgerMetrics) RecordTransactionUpdated() {
	m.transactionsUpdated.Inc()
}

// RecordTransactionDeleted увеличивает счётчик удалённых транзакций.
func (m *LedgerMetrics) RecordTransactionDeleted() {
	m.transactionsDeleted.Inc()
}

// RecordStockConflict увеличивает счётчик отказов из-за нехватки остатка.
func (m *LedgerMetrics) RecordStockConflict() {
	m.stockConflicts.Inc()
}

// RecordLedgerDuration записывает время выполнения мутации ledger.
func (m *LedgerMetrics) RecordLedgerDuration(duration time.Duration) {
	m.ledgerDuration.Observe(duration.Seconds())
}

// RecordOpDuration записывает время выполнения операции ledger.
func (m *LedgerMetrics) RecordOpDuration(operation string, duration time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTokenIssued учитывает выданный токен.
func (m *LedgerMetrics) RecordTokenIssued() {
	m.tokensIssued.Inc()
	m.activeSessions.Inc()
}

// RecordLoginFailure увеличивает счётчик отклонённых логинов.
func (m *LedgerMetrics) RecordLoginFailure() {
	m.loginFailures.Inc()
}

// RecordSessionClosed уменьшает количество активных сессий.
func (m *LedgerMetrics) RecordSessionClosed() {
	m.activeSessions.Dec()
}
