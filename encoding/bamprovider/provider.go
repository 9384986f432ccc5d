package bamprovider

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// Region is a half-open, 0-based interval [Start, End) on a named reference.
type Region struct {
	Ref   string
	Start int
	End   int
}

// String returns the region in samtools notation (1-based, closed).
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Ref, r.Start+1, r.End)
}

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. If Index=="", it defaults
	// to path + ".bai".
	Index string
}

// Provider allows reading a BAM file in parallel. Thread safe.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the records overlapping region.
	// Failures, including an unknown reference name, are reported through the
	// iterator's Err.
	//
	// REQUIRES: Close has not been called.
	NewIterator(region Region) Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in a particular genomic range, in
// coordinate order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// NewProvider creates a Provider for the given BAM file.  The path may be any
// URL understood by grailbio/base/file.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
	}
	return &BAMProvider{Path: path, Index: opts.Index}
}

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// overlaps reports whether rec's aligned span intersects [start, end).
// Records without a CIGAR occupy a single position.
func overlaps(rec *sam.Record, start, end int) bool {
	recEnd := rec.End()
	if recEnd <= rec.Pos {
		recEnd = rec.Pos + 1
	}
	return rec.Pos < end && recEnd > start
}

type failedIterator struct {
	err error
}

func (i *failedIterator) Scan() bool          { return false }
func (i *failedIterator) Record() *sam.Record { return nil }
func (i *failedIterator) Err() error          { return i.err }
func (i *failedIterator) Close() error        { return i.err }

// NewErrorIterator creates an Iterator that yields no record and returns err
// from both Err and Close.
func NewErrorIterator(err error) Iterator {
	return &failedIterator{err: err}
}
