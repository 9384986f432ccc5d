package bamprovider

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// fakeProvider is only for unittests. It yields the given records.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
	// Regions for which NewIterator fails, keyed by Region.String().
	failures map[string]error
}

type fakeIterator struct {
	recs   []*sam.Record
	rec    *sam.Record
	region Region
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and the subset of recs overlapping the requested region in
// response to NewIterator.  recs must be coordinate sorted.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	return &fakeProvider{header: header, recs: recs}
}

// NewFailingFakeProvider is like NewFakeProvider, but iterators over the
// listed regions report the corresponding error instead of yielding records.
func NewFailingFakeProvider(header *sam.Header, recs []*sam.Record, failures map[Region]error) Provider {
	p := &fakeProvider{header: header, recs: recs, failures: map[string]error{}}
	for r, err := range failures {
		p.failures[r.String()] = err
	}
	return p
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *fakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// Close implements the Provider interface.
func (b *fakeProvider) Close() error {
	return nil
}

// NewIterator implements the Provider interface.
func (b *fakeProvider) NewIterator(region Region) Iterator {
	if err, ok := b.failures[region.String()]; ok {
		return NewErrorIterator(err)
	}
	if RefByName(b.header, region.Ref) == nil {
		return NewErrorIterator(errors.E(errors.NotExist,
			fmt.Sprintf("bamprovider: reference %q not found in header", region.Ref)))
	}
	return &fakeIterator{recs: b.recs, region: region}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return nil
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return nil
}

// Scan implements the Iterator interface.
func (i *fakeIterator) Scan() bool {
	for len(i.recs) > 0 {
		i.rec = i.recs[0]
		i.recs = i.recs[1:]
		if i.rec.Ref != nil && i.rec.Ref.Name() == i.region.Ref && overlaps(i.rec, i.region.Start, i.region.End) {
			return true
		}
	}
	return false
}

// Record implements the Iterator interface.
func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
