package bamprovider

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for indexed BAM files.  Both files are
// opened through base/file.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	err   errors.Once

	mu        sync.Mutex
	nActive   int
	freeIters []*bamIterator
	header    *sam.Header
	bai       *bam.Index
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	// Reference and half-open position range to read.
	ref        *sam.Reference
	start, end int

	active bool
	err    error
	next   *sam.Record
}

func (b *BAMProvider) indexPath() string {
	if b.Index == "" {
		return b.Path + ".bai"
	}
	return b.Index
}

// GetHeader implements the Provider interface.  The first call also loads the
// BAI index, so a BAM file without a readable index fails here rather than in
// every iterator.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}
	header, bai, err := b.load()
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	b.header, b.bai = header, bai
	return b.header, nil
}

func (b *BAMProvider) load() (header *sam.Header, bai *bam.Index, err error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		return nil, nil, errors.E(err, "bamprovider: open", b.Path)
	}
	defer in.Close(ctx) // nolint: errcheck
	bamReader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return nil, nil, errors.E(errors.Invalid, err, "bamprovider: read header", b.Path)
	}
	header = bamReader.Header()
	if err = bamReader.Close(); err != nil {
		return nil, nil, errors.E(err, "bamprovider: close", b.Path)
	}

	indexIn, err := file.Open(ctx, b.indexPath())
	if err != nil {
		return nil, nil, errors.E(err, "bamprovider: open index", b.indexPath())
	}
	defer indexIn.Close(ctx) // nolint: errcheck
	if bai, err = bam.ReadIndex(indexIn.Reader(ctx)); err != nil {
		return nil, nil, errors.E(errors.Invalid, err, "bamprovider: read index", b.indexPath())
	}
	return header, bai, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b)
	}
	for _, iter := range b.freeIters {
		iter.internalClose()
	}
	b.freeIters = nil
	return b.err.Err()
}

func (b *BAMProvider) freeIterator(i *bamIterator) {
	if !i.active {
		vlog.Fatal(i)
	}
	i.active = false
	if i.Err() != nil || i.reader == nil {
		// The iter may be invalid. Don't reuse it.
		i.internalClose() // Will set b.err
		i = nil
	}
	b.mu.Lock()
	if i != nil {
		b.freeIters = append(b.freeIters, i)
	}
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b)
	}
	b.mu.Unlock()
}

// Return an unused iterator. If b.freeIters is nonempty, this function returns
// one from freeIters. Else, it opens the BAM file, creates a BAM reader and
// returns an iterator containing them. On error, returns an iterator with
// non-nil err field.
func (b *BAMProvider) allocateIterator() *bamIterator {
	b.mu.Lock()
	b.nActive++
	if len(b.freeIters) > 0 {
		iter := b.freeIters[len(b.freeIters)-1]
		iter.active = true
		iter.err = nil
		iter.next = nil
		b.freeIters = b.freeIters[:len(b.freeIters)-1]
		b.mu.Unlock()
		return iter
	}
	b.mu.Unlock()

	iter := bamIterator{
		provider: b,
		active:   true,
	}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		iter.err = errors.E(iter.err, "bamprovider: open", b.Path)
		return &iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		iter.err = errors.E(errors.Invalid, iter.err, "bamprovider: read header", b.Path)
	}
	return &iter
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator(region Region) Iterator {
	if _, err := b.GetHeader(); err != nil {
		return NewErrorIterator(err)
	}
	iter := b.allocateIterator()
	if iter.err != nil {
		return iter
	}
	iter.reset(region)
	return iter
}

// Reset the iterator to read the records overlapping region.
func (i *bamIterator) reset(region Region) {
	i.ref = RefByName(i.reader.Header(), region.Ref)
	if i.ref == nil {
		i.err = errors.E(errors.NotExist,
			fmt.Sprintf("bamprovider %s: reference %q not found in header", i.provider.Path, region.Ref))
		return
	}
	if region.Start < 0 || region.Start >= region.End {
		i.err = errors.E(errors.Invalid, fmt.Sprintf("bamprovider: empty or negative region %v", region))
		return
	}
	i.start, i.end = region.Start, region.End

	// Find the file offset at which the first record overlapping the region is
	// located.
	chunks, err := i.provider.bai.Chunks(i.ref, i.start, i.end)
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		// No reads in this interval.
		i.err = io.EOF
		return
	}
	if err != nil {
		i.err = errors.E(errors.Invalid, err, "bamprovider: index lookup", region.String())
		return
	}
	i.err = i.reader.Seek(chunks[0].Begin)
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	err := i.Err()
	i.provider.freeIterator(i)
	return err
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		rec := i.next
		if rec.Ref == nil || rec.Ref.ID() > i.ref.ID() || (rec.Ref.ID() == i.ref.ID() && rec.Pos >= i.end) {
			// Past the region. Records are coordinate sorted.
			i.err = io.EOF
			return false
		}
		if rec.Ref.ID() < i.ref.ID() || !overlaps(rec, i.start, i.end) {
			continue
		}
		return true
	}
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.next
}

func (i *bamIterator) internalClose() {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
	i.provider.err.Set(i.Err())
}
