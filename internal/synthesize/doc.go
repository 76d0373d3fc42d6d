// Package synthesize turns raw per-model review text into a structured
// CodeReviewReport. Category, finding, insight, and priority extraction each
// issue one structured request through the resilient layer; category
// extraction carries deterministic fallbacks, the rest fail loudly and the
// generator decides how far to degrade. Generate never returns an error.
package synthesize
