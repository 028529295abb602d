// Package merger reconciles a freshly normalized table with the table
// already stored under the same logical name.
//
// Merging stacks the new rows under the stored ones, turns numeric text
// into numbers, removes duplicate rows and derives the clean tier, whose
// cells are punctuation-stripped text. Both tiers are then replaced
// wholesale. Every column is stored as text; Classify only feeds debug
// logging.
//
// Merging the same table twice yields the same row set as merging it once.
package merger
