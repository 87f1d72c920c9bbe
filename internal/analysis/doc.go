// Package analysis derives the presentation model of a prosody analysis.
//
// Everything here is a pure function of a decoded domain.Analysis:
//   - per-verse verdicts and score percentages
//   - status-tag tallies and tone classification
//   - the aggregate summary and its confidence band
//   - the meter label pair shown to users
//   - the JSON dump and the plain-text report
//
// Nothing is cached. Callers rebuild a View whenever they render so a
// replaced Analysis can never leave stale numbers behind.
package analysis
