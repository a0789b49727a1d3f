package stabframe

import (
	"log/slog"

	"github.com/hupe1980/stabframe/manifest"
	"github.com/hupe1980/stabframe/record"
	"github.com/hupe1980/stabframe/resource"
)

type options struct {
	seed             uint64
	maxLookback      int
	writer           record.Writer
	detectorWriter   record.Writer
	manifestStore    *manifest.Store
	controller       *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Simulator constructor behavior.
//
// Today options primarily exist to avoid exploding New's positional
// argument list (e.g. wiring an optional sink, manifest store, or resource
// controller only when the caller needs one).
//
// Breaking changes are expected while stabframe is pre-release.
type Option func(*options)

// WithSeed fixes the simulator's RNG seed, making the run deterministic and
// bit-exact across hosts with the same word size. If unset or zero, New
// draws a fresh seed from crypto/rand and records the resolved value in the
// run manifest.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMaxLookback bounds the measurement record's and the detector record's
// rec[-k] window (record.NewBatch). If unset, defaults to 1.
func WithMaxLookback(n int) Option {
	return func(o *options) {
		o.maxLookback = n
	}
}

// WithWriter configures the record.Writer the simulator flushes its
// measurement stream to. If unset, Flush is a no-op beyond bookkeeping —
// callers that only want in-memory access to Simulator.Record/Detectors
// don't need one.
func WithWriter(w record.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithDetectorWriter configures the record.Writer the simulator flushes its
// detector-parity stream to, independently of the measurement stream:
// detectors and raw measurements have different lookback consumers, so
// they are two independently-flushable record.Batch instances with their
// own Writer. If unset, Detectors() accumulates in memory only.
func WithDetectorWriter(w record.Writer) Option {
	return func(o *options) {
		o.detectorWriter = w
	}
}

// WithManifestStore configures a manifest.Store that SaveManifest persists the
// run's RunManifest to alongside the sample stream.
func WithManifestStore(s *manifest.Store) Option {
	return func(o *options) {
		o.manifestStore = s
	}
}

// WithController configures a resource.Controller that gates how many
// concurrent Simulator instances may run and throttles sink I/O. Package
// pool sets this automatically for a batch of RunSpecs; set it directly
// only when constructing a Simulator outside of pool.Run.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &stabframe.BasicMetricsCollector{}
//	sim, _ := stabframe.New(ctx, n, shots, stabframe.WithMetricsCollector(metrics))
//	// ... use sim ...
//	stats := metrics.GetStats()
//	fmt.Printf("runs: %d, avg latency: %dns\n", stats.RunCount, stats.RunAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations. Pass nil to
// disable logging.
//
// Example with JSON logging:
//
//	logger := stabframe.NewJSONLogger(slog.LevelInfo)
//	sim, _ := stabframe.New(ctx, n, shots, stabframe.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxLookback:      1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
