// Package trace records runtime lifecycle events: allocations, container
// growth, rehashes and scope teardown.
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: failures only
//   - LevelLifecycle: scope, pool and registry teardown
//   - LevelDetail: container growth and rehash
//   - LevelDebug: every allocation and free
//
// # Sinks
//
//   - Nop: zero-overhead default
//   - StreamTracer: immediate text or NDJSON output
//   - RingTracer: last N events kept in memory for post-mortem dumps
//
// Tracers are attached to an allocator; every container built on that
// allocator reports through it.
package trace
