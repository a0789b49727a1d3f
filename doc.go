// Package stabframe is a batched stabilizer-circuit simulation and sampling
// engine for quantum error-correction experiments: given a parsed
// Clifford+noise circuit (package circuit), it propagates Pauli error
// frames through the circuit's gates in lockstep across thousands of shots
// (package framesim, backed by the word-packed bit storage in
// internal/simdbits), and produces a measurement/detector record (package
// record) that downstream decoders consume.
//
// # Quick start
//
//	sim, err := stabframe.New(ctx, numQubits, numShots, stabframe.WithSeed(1))
//	if err != nil {
//	    // ...
//	}
//	defer sim.Close()
//
//	if err := sim.Run(ctx, c); err != nil {
//	    // ...
//	}
//	if err := sim.Flush(ctx); err != nil {
//	    // ...
//	}
//
// # Scope
//
// This module is the CORE stabilizer arithmetic and sampling engine: the
// bit-packed Pauli-string/tableau data model, the frame simulator, the
// measurement-record ring buffer, and the gate catalogue/dispatch. The
// textual circuit parser/printer, a CLI front-end, language bindings, and
// sample-layout generators are external collaborators that exchange a
// parsed circuit.Circuit and a record.Writer byte stream with this module,
// and are out of scope here.
//
// # Determinism
//
// Given a fixed seed and an identical circuit, every sampled measurement
// record is bit-exact across runs on hosts with the same word size —
// package internal/rng is a counter-based generator, never a shared
// stateful stream, specifically to make this guarantee hold regardless of
// instruction or qubit iteration order.
//
// # Concurrency
//
// One Simulator is single-threaded: parallelism across shots comes from
// SIMD-word packing within a single instance (package internal/simdbits),
// and parallelism across independent runs comes from running multiple
// Simulator instances concurrently, each with its own frame tables, RNG
// streams, and record batches — see package pool for a bounded, errgroup-
// based helper that runs a batch of independent RunSpecs this way.
package stabframe
