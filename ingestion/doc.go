// Package ingestion turns upload events into stored, enriched segments.
//
// The Coordinator drives each event through a fixed sequence of states:
//
//	received -> content-read -> segmented -> enriched -> stored -> done
//
// with failed reachable from any non-terminal state. An event whose
// (document, role) pair is already stored skips straight to done, so
// redelivered events are harmless.
//
// The Enricher asks a text generator for keywords and a summary of every
// segment concurrently. A failed call degrades that one segment to empty
// keywords and summary; it never fails the event.
package ingestion
