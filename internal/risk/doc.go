// Package risk implements the uncertainty quantification core: risk vector
// extraction from aggregated project signals, discrete state classification,
// the recursive Bayesian confidence filter with feedback recalibration, the
// predictive projection window, and mitigation ROI ranking.
//
// Everything in this package is synchronous and in-memory. The only state
// that survives a cycle is the per-scope ConfidencePrior owned by Engine;
// all other values are recomputed from the current prior and the current
// signal snapshot on every evaluation.
package risk
