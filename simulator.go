package stabframe

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/stabframe/circuit"
	"github.com/hupe1980/stabframe/framesim"
	"github.com/hupe1980/stabframe/internal/hash"
	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/hupe1980/stabframe/manifest"
	"github.com/hupe1980/stabframe/record"
)

// Simulator is the public entry point wrapping one framesim.Simulator
// instance together with the ambient stack around it: structured logging,
// metrics, an optional record.Writer sink, and an optional run-manifest
// store. It corresponds to exactly one RunManifest's lifetime: construction
// through the final flush and manifest save.
type Simulator struct {
	frame *framesim.Simulator

	seed           uint64
	writer         record.Writer // measurement record sink
	detectorWriter record.Writer // detector record sink; independent stream from writer
	writerEnded    bool          // true once FinalFlush has called writer.WriteEnd
	detectorEnded  bool          // true once FinalFlush has called detectorWriter.WriteEnd
	manifestStore  *manifest.Store
	release        func()

	logger  *Logger
	metrics MetricsCollector

	gateHistogram map[string]int
	usedQubits    *roaring.Bitmap
	startedAt     time.Time
	closed        bool
}

// New constructs a Simulator over numQubits qubits and numShots shots. If
// ctx is non-nil and a resource.Controller was configured via
// WithController, New blocks until a concurrent-run slot is available or
// ctx is cancelled.
func New(ctx context.Context, numQubits, numShots int, optFns ...Option) (*Simulator, error) {
	if numQubits < 0 || numShots < 0 {
		return nil, &ErrInvalidDimensions{NumQubits: numQubits, NumShots: numShots}
	}

	o := applyOptions(optFns)

	var release func()
	if o.controller != nil {
		rel, err := o.controller.Acquire(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("stabframe: acquiring run slot: %w", err)
		}
		release = rel
	}

	seed := o.seed
	if seed == 0 {
		seed = randomSeed()
	}

	s := &Simulator{
		frame:          framesim.NewSimulator(numQubits, numShots, seed, o.maxLookback),
		seed:           seed,
		writer:         o.writer,
		detectorWriter: o.detectorWriter,
		manifestStore:  o.manifestStore,
		release:        release,
		logger:         o.logger.WithSeed(seed).WithQubits(numQubits).WithShots(numShots),
		metrics:        o.metricsCollector,
		gateHistogram:  make(map[string]int),
		usedQubits:     roaring.New(),
		startedAt:      nowOrZero(),
	}
	return s, nil
}

// randomSeed draws a fresh top-level seed from crypto/rand, matching
// internal/rng.NewRNG's own zero-seed fallback, so the resolved seed can be
// recorded in the run manifest instead of staying opaque inside the RNG.
func randomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// nowOrZero returns the current wall-clock time for the manifest's
// StartedAt; it never returns the zero time. The timestamp is only ever
// compared for presence, never asserted bit-exact against a fixed time the
// way seeded RNG output is.
func nowOrZero() time.Time {
	return time.Now()
}

// Seed returns the seed this run was (or will be) constructed with; if
// WithSeed was not given, this is the value New drew from crypto/rand.
func (s *Simulator) Seed() uint64 { return s.seed }

// NumQubits returns the simulator's qubit count.
func (s *Simulator) NumQubits() int { return s.frame.NumQubits() }

// NumShots returns the simulator's shot count.
func (s *Simulator) NumShots() int { return s.frame.NumShots() }

// Record is the measurement-record batch RUN accumulates into; see
// framesim.Simulator.Record.
func (s *Simulator) Record() *record.Batch { return s.frame.Record }

// Detectors is the detector-parity record batch Run accumulates into; see
// framesim.Simulator.Detectors.
func (s *Simulator) Detectors() *record.Batch { return s.frame.Detectors }

// SetInterrupt installs a cooperative-cancellation callback polled before
// each instruction, including those inside REPEAT bodies; see
// framesim.Simulator.Interrupt.
func (s *Simulator) SetInterrupt(interrupt func() bool) {
	s.frame.Interrupt = interrupt
}

// Run executes c against the simulator's frame tables in source order,
// appending to Record/Detectors/observables as it goes, and tallies c's
// gate usage into the run manifest's histogram.
func (s *Simulator) Run(ctx context.Context, c circuit.Circuit) error {
	if s.closed {
		return ErrClosed
	}
	start := time.Now()
	err := s.frame.Execute(c)
	dur := time.Since(start)

	s.metrics.RecordRun(s.frame.NumShots(), dur, err)
	s.logger.LogRun(ctx, c.NumInstructions(), err)

	if err != nil {
		if err == framesim.ErrInterrupted {
			s.logger.LogInterrupted(ctx, c.NumInstructions())
		}
		return translateError(err)
	}

	tallyGateHistogram(s.gateHistogram, c.Blocks, 1)
	s.usedQubits.Or(c.UsedQubits())
	return nil
}

// tallyGateHistogram walks blocks recursively, incrementing
// histogram[instruction.Gate.Name] by mult for every instruction, unrolling
// REPEAT bodies by their count the same way circuit.Circuit.NumInstructions
// does.
func tallyGateHistogram(histogram map[string]int, blocks []circuit.Block, mult int) {
	for _, b := range blocks {
		if b.IsRepeat() {
			tallyGateHistogram(histogram, b.RepeatBody, mult*b.RepeatCount)
			continue
		}
		histogram[b.Instruction.Gate.Name] += mult
	}
}

// Flush writes every unwritten measurement row to the configured Writer
// (full 1024-row blocks, per
// record.Batch.IntermediateWriteUnwrittenResultsTo) without finalizing the
// stream — callers should call this periodically during a long-running
// experiment so memory doesn't grow unbounded, and call FinalFlush once at
// the end of the run. refSample, if given, selects which rows get XORed
// against the shot mask before writing (a reference-sample deviation
// encoding); omit it to write raw outcomes. If no Writer was
// configured, Flush only advances the record's written/compaction
// bookkeeping — matching MarkAllAsWritten with no bytes ever produced.
func (s *Simulator) Flush(ctx context.Context, refSample ...simdbits.Ref) error {
	if s.closed {
		return ErrClosed
	}
	ref := firstRefOrZero(refSample)
	start := time.Now()

	rowsWritten := 0
	var err error
	if s.writer != nil {
		before := s.Record().Written()
		err = s.Record().IntermediateWriteUnwrittenResultsTo(s.writer, ref)
		rowsWritten += s.Record().Written() - before
	} else {
		s.Record().MarkAllAsWritten()
	}
	if err == nil {
		if s.detectorWriter != nil {
			before := s.Detectors().Written()
			err = s.Detectors().IntermediateWriteUnwrittenResultsTo(s.detectorWriter, ref)
			rowsWritten += s.Detectors().Written() - before
		} else {
			s.Detectors().MarkAllAsWritten()
		}
	}

	dur := time.Since(start)
	s.metrics.RecordFlush(rowsWritten, dur, err)
	s.logger.LogFlush(ctx, rowsWritten, err)
	if err != nil {
		return fmt.Errorf("stabframe: flush: %w", err)
	}
	return nil
}

// FinalFlush writes every remaining unwritten row bit-by-bit and emits
// end-of-stream to each configured Writer, per
// record.Batch.FinalWriteUnwrittenResultsTo. Call this once, at the end of
// a run, after the last Flush.
func (s *Simulator) FinalFlush(ctx context.Context, refSample ...simdbits.Ref) error {
	if s.closed {
		return ErrClosed
	}
	ref := firstRefOrZero(refSample)
	start := time.Now()

	rowsWritten := 0
	var err error
	if s.writer != nil {
		before := s.Record().Written()
		err = s.Record().FinalWriteUnwrittenResultsTo(s.writer, ref)
		rowsWritten += s.Record().Written() - before
		if err == nil {
			s.writerEnded = true
		}
	} else {
		s.Record().Clear()
	}
	if err == nil {
		if s.detectorWriter != nil {
			before := s.Detectors().Written()
			err = s.Detectors().FinalWriteUnwrittenResultsTo(s.detectorWriter, ref)
			rowsWritten += s.Detectors().Written() - before
			if err == nil {
				s.detectorEnded = true
			}
		} else {
			s.Detectors().Clear()
		}
	}

	dur := time.Since(start)
	s.metrics.RecordFlush(rowsWritten, dur, err)
	s.logger.LogFlush(ctx, rowsWritten, err)
	if err != nil {
		return fmt.Errorf("stabframe: final flush: %w", err)
	}
	return nil
}

func firstRefOrZero(refs []simdbits.Ref) simdbits.Ref {
	if len(refs) > 0 {
		return refs[0]
	}
	return simdbits.Ref{}
}

// SaveManifest persists a RunManifest describing this run (seed, qubit/shot
// counts, circuit digest, gate histogram) to the configured manifest.Store.
// circuitDigest should be a CRC32C over the executed instruction stream
// (see DigestCircuit); callers that never call Run's circuit through
// DigestCircuit may pass 0.
func (s *Simulator) SaveManifest(ctx context.Context, circuitDigest uint32) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if s.manifestStore == nil {
		return "", fmt.Errorf("stabframe: SaveManifest: no manifest store configured")
	}

	m := &manifest.RunManifest{
		Seed:          s.seed,
		NumQubits:     s.frame.NumQubits(),
		NumShots:      s.frame.NumShots(),
		CircuitDigest: circuitDigest,
		GateHistogram: s.gateHistogram,
		UsedQubits:    s.usedQubits.ToArray(),
		StartedAt:     s.startedAt,
		Done:          time.Now(),
	}

	start := time.Now()
	filename, err := s.manifestStore.Save(m)
	dur := time.Since(start)

	s.metrics.RecordManifestSave(dur, err)
	s.logger.LogManifest(ctx, filename, err)
	if err != nil {
		return "", fmt.Errorf("stabframe: saving manifest: %w", err)
	}
	return filename, nil
}

// DigestCircuit computes the CRC32C digest SaveManifest expects, over a
// simple encoding of each instruction's gate name bytes, args (each scaled
// by 1e9 to a uint64), and targets (kind byte plus uint32 value) in source
// order, with no length prefixes (REPEAT bodies are walked, not unrolled, so the
// digest reflects source structure rather than execution trace length).
func DigestCircuit(c circuit.Circuit) uint32 {
	h := hash.NewCRC32C()
	var walk func(blocks []circuit.Block)
	walk = func(blocks []circuit.Block) {
		for _, b := range blocks {
			if b.IsRepeat() {
				var countBuf [8]byte
				binary.LittleEndian.PutUint64(countBuf[:], uint64(b.RepeatCount))
				_, _ = h.Write(countBuf[:])
				walk(b.RepeatBody)
				continue
			}
			in := b.Instruction
			_, _ = h.Write([]byte(in.Gate.Name))
			for _, arg := range in.Args {
				var buf [8]byte
				binary.LittleEndian.PutUint64(buf[:], uint64(arg*1e9))
				_, _ = h.Write(buf[:])
			}
			for _, t := range in.Targets {
				var buf [5]byte
				buf[0] = byte(t.Kind)
				binary.LittleEndian.PutUint32(buf[1:], uint32(t.Value))
				_, _ = h.Write(buf[:])
			}
		}
	}
	walk(c.Blocks)
	return h.Sum32()
}
