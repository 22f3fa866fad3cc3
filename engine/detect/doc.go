// Package detect implements the detection stages that flag userlib archives
// as redundant: duplicate grouping, cross-referencing against the managed
// vendorlib set and sidecar metadata association.
//
// Stages only ever add to a CandidateSet; removal decisions that subtract
// (protection) live in the library package and are applied by the caller.
package detect
