// Package bamprovider provides utilities for reading small genomic windows out
// of an indexed BAM file, from many goroutines at once.
//
// The Provider is an interface for reading a BAM file in parallel. A Provider
// hands out Iterators, each bound to one Region. Iterators are pooled, so
// opening thousands of short-lived iterators against the same file reuses the
// underlying file handles and BAM readers.
package bamprovider
