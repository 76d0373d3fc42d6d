// Package cost estimates dollar cost for model calls from token counts.
// Rates live in an explicit table passed by the caller; there is no global
// state and no rate file loaded at startup.
package cost
