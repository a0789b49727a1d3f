package stabframe

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with stabframe-specific context. This provides
// structured logging with consistent field names across a run.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is nil,
// uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output. Use this to
// disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSeed adds the run's resolved seed to the logger's context.
func (l *Logger) WithSeed(seed uint64) *Logger {
	return &Logger{Logger: l.Logger.With("seed", seed)}
}

// WithShots adds the run's shot count to the logger's context.
func (l *Logger) WithShots(numShots int) *Logger {
	return &Logger{Logger: l.Logger.With("num_shots", numShots)}
}

// WithQubits adds the run's qubit count to the logger's context.
func (l *Logger) WithQubits(numQubits int) *Logger {
	return &Logger{Logger: l.Logger.With("num_qubits", numQubits)}
}

// LogRun logs one Simulator.Run call: a circuit executed against the frame
// tables, producing new measurement/detector rows.
func (l *Logger) LogRun(ctx context.Context, numInstructions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"num_instructions", numInstructions,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "run completed",
			"num_instructions", numInstructions,
		)
	}
}

// LogFlush logs a record-batch flush to the configured Writer.
func (l *Logger) LogFlush(ctx context.Context, rowsWritten int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"rows_written", rowsWritten,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "flush completed",
			"rows_written", rowsWritten,
		)
	}
}

// LogManifest logs a run-manifest save.
func (l *Logger) LogManifest(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "manifest save failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "manifest saved",
			"filename", filename,
		)
	}
}

// LogInterrupted logs an executor interrupt (Simulator.Interrupt returning
// true mid-circuit).
func (l *Logger) LogInterrupted(ctx context.Context, instructionIndex int) {
	l.WarnContext(ctx, "run interrupted",
		"instruction_index", instructionIndex,
	)
}
