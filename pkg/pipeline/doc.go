// Package pipeline runs the four content agents over one product record.
//
// The Parser turns the raw record into a structured one. The Descriptor, FAQ
// generator and Comparator then each receive the structured record, one after
// another, within the same session. Their outputs are aggregated into a Result.
package pipeline
