package blackbox

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ProgressUpdate reports one function's reconstruction progress: which
// phase it is in, how many probes it has consumed so far, and the
// current prime counter.
type ProgressUpdate struct {
	FunctionTag    string
	Phase          string
	ProbesConsumed int
	PrimeCounter   int
}

// ProgressObserver receives progress updates as the Reconstructor drains
// probe results into each function's RatReconst.
type ProgressObserver interface {
	Update(u ProgressUpdate)
}

// ChannelObserver forwards updates to a channel, non-blocking so a slow
// or absent UI consumer never stalls the scheduler.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver returns an observer that forwards to ch. If ch is
// nil, updates are silently discarded.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

func (o *ChannelObserver) Update(u ProgressUpdate) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- u:
	default:
	}
}

// LoggingObserver logs a debug line on every phase transition, and on
// probe-count progress every `every` probes to avoid log spam on a
// function needing thousands of probes.
type LoggingObserver struct {
	logger zerolog.Logger
	every  int

	mu        sync.Mutex
	lastPhase map[string]string
	lastCount map[string]int
}

// NewLoggingObserver returns a LoggingObserver logging to logger, at most
// once every `every` consumed probes per function (in addition to every
// phase transition).
func NewLoggingObserver(logger zerolog.Logger, every int) *LoggingObserver {
	if every <= 0 {
		every = 50
	}
	return &LoggingObserver{
		logger:    logger,
		every:     every,
		lastPhase: make(map[string]string),
		lastCount: make(map[string]int),
	}
}

func (o *LoggingObserver) Update(u ProgressUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()

	phaseChanged := o.lastPhase[u.FunctionTag] != u.Phase
	countJump := u.ProbesConsumed-o.lastCount[u.FunctionTag] >= o.every

	if phaseChanged || countJump {
		o.logger.Debug().
			Str("function", u.FunctionTag).
			Str("phase", u.Phase).
			Int("probes_consumed", u.ProbesConsumed).
			Int("prime_counter", u.PrimeCounter).
			Msg("reconstruction progress")
		o.lastPhase[u.FunctionTag] = u.Phase
		o.lastCount[u.FunctionTag] = u.ProbesConsumed
	}
}

var probesConsumedGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "firefly_probes_consumed",
		Help: "Probes consumed so far by a reconstructed function.",
	},
	[]string{"function"},
)

var primeCounterGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "firefly_prime_counter",
		Help: "Current prime counter of a reconstructed function.",
	},
	[]string{"function"},
)

// MetricsObserver exports probe/prime progress to Prometheus.
type MetricsObserver struct{}

// NewMetricsObserver returns an observer exporting to the process's
// default Prometheus registry.
func NewMetricsObserver() *MetricsObserver { return &MetricsObserver{} }

func (o *MetricsObserver) Update(u ProgressUpdate) {
	probesConsumedGauge.WithLabelValues(u.FunctionTag).Set(float64(u.ProbesConsumed))
	primeCounterGauge.WithLabelValues(u.FunctionTag).Set(float64(u.PrimeCounter))
}

// ResetMetrics clears all exported gauges, for a fresh run in the same
// process (tests, or ff_merge invoked after ff_insert in one binary).
func (o *MetricsObserver) ResetMetrics() {
	probesConsumedGauge.Reset()
	primeCounterGauge.Reset()
}

// NoOpObserver discards every update.
type NoOpObserver struct{}

// NewNoOpObserver returns a NoOpObserver.
func NewNoOpObserver() *NoOpObserver { return &NoOpObserver{} }

func (o *NoOpObserver) Update(ProgressUpdate) {}

// MultiObserver fans one update out to several observers, letting the CLI
// combine e.g. logging and metrics without either knowing about the
// other.
type MultiObserver struct {
	observers []ProgressObserver
}

// NewMultiObserver returns an observer forwarding to every given observer.
func NewMultiObserver(observers ...ProgressObserver) *MultiObserver {
	return &MultiObserver{observers: observers}
}

func (o *MultiObserver) Update(u ProgressUpdate) {
	for _, obs := range o.observers {
		obs.Update(u)
	}
}
