// Package dataflow provides the streaming node contract underlying the
// log-analysis pipeline.
//
// A graph is built from nodes: functions that consume zero or more input
// streams and emit items on a single output stream. Streams are backed by
// unbuffered channels, so the graph is pull-driven: a producer never runs
// ahead of what its consumer has requested, and end-of-stream is the closed
// channel. Nodes declared foreach over a collection are instantiated once per
// element, with one independent output stream per instance.
//
// A node may terminate early with ErrAbort to signal that it has nothing to
// contribute. Abort is not a fault: the node's output stream ends empty and
// dependents observe valid absence. Pulling from a nil stream behaves the
// same way, so wiring code can pass missing inputs through unchanged.
//
// The graph stops on the first real error, preventing further processing and
// ensuring partial results are never mistaken for complete ones.
package dataflow
