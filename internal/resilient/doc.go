// Package resilient wraps single remote calls with timeout, retry, and
// exponential backoff, and classifies every failure into a fixed error
// taxonomy with a per-kind retryability flag.
//
// Classification prefers structured fields: provider adapters surface HTTP
// failures as [StatusError] so the status code drives the kind. Message
// substring matching is a last-resort heuristic for transport errors that
// carry no status, and is documented as such.
//
// The layer has no knowledge of the report domain; it retries anything shaped
// like func(ctx) (T, error).
package resilient
