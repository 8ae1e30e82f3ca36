package slotpool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "sheetpool"
	metricsSubsystem = "pool"
)

type metrics struct {
	rejected     prometheus.Counter
	loadFailures prometheus.Counter
	restarts     *prometheus.CounterVec
	engineCalls  *prometheus.HistogramVec
}

func newMetrics(p *Pool, reg prometheus.Registerer) *metrics {
	m := &metrics{
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "acquire_rejected_total",
			Help:      "Acquire calls rejected because every slot was bound.",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "load_failures_total",
			Help:      "Documents the engine failed to open.",
		}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "restarts_total",
			Help:      "Engine instance restarts by result.",
		}, []string{"result"}),
		engineCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "engine_call_seconds",
			Help:      "Duration of engine operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"op"}),
	}

	if reg == nil {
		return m
	}

	gauge := func(name, help string, fn func(Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(fn(p.Stats())) })
	}

	reg.MustRegister(
		gauge("slots", "Configured slots.", func(s Stats) int { return s.Size }),
		gauge("slots_in_use", "Slots bound to a session.", func(s Stats) int { return s.InUse }),
		gauge("slots_broken", "Slots whose engine instance could not be restarted.", func(s Stats) int { return s.Broken }),
		m.rejected,
		m.loadFailures,
		m.restarts,
		m.engineCalls,
	)
	return m
}

func (m *metrics) observe(op string, start time.Time) {
	m.engineCalls.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metrics) restart(err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.restarts.WithLabelValues(result).Inc()
}
