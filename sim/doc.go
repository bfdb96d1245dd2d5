// Package sim provides the Monte Carlo pit-strategy simulator.
//
// # Reading Guide
//
// Start with these files to understand the model:
//   - simulator.go: Simulate, the request/result types and the per-candidate trial loop
//   - stint.go: lap-time projection for one stint (baseline pace + wear + noise)
//   - compound.go: compounds and the two-piece linear degradation model
//   - percentile.go: per-lap percentile bands across trials
//
// # Determinism
//
// A simulation is a pure function of its Request. All randomness flows from
// Request.Seed through PartitionedRNG (rng.go): each candidate owns a stream
// derived from the seed and its position, and each trial owns a generator
// seeded from a draw of that stream. Candidates can therefore be evaluated in
// any order or concurrently (WithParallelism) with bit-identical results.
//
// # Sub-packages
//   - sim/lapdata/: lap-table sources (CSV files, SQLite)
//
// The package performs no I/O apart from optional debug logging; loading lap
// tables, caching results and serving requests belong to callers.
package sim
