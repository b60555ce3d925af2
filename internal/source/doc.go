// Package source extracts raw store listings from the documents published by
// each supermarket chain.
//
// Every chain exposes its branches through a structurally different channel,
// so each [Adapter] owns its own extraction strategy. Where a chain has more
// than one known page layout the adapter tries its strategies in a fixed
// order and keeps the result of the first one that yields listings; results
// from different strategies are never mixed.
//
// Failures are isolated per listing: a malformed item is logged and dropped
// while the rest of the document is still extracted. An adapter returning no
// listings is a valid outcome. An error is returned only when the document as
// a whole cannot be decoded.
package source
