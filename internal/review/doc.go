// Package review fans a packed codebase out to several model providers in
// parallel and collects one free-text review per model, with per-model
// latency, token, and cost counters. Individual model failures are recorded
// on the result rather than failing the run; the run errors only when every
// model fails.
package review
