// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"github.com/grailbio/hts/sam"
)

// RecordIterator is the part of bamprovider.Iterator the column builder
// consumes.
type RecordIterator interface {
	Scan() bool
	Record() *sam.Record
	Err() error
}

// ColumnOpts controls which reads enter a column.
type ColumnOpts struct {
	// SkipFlags: reads with any of these FLAG bits set are ignored entirely.
	SkipFlags sam.Flags
	// MaxDepth caps the number of reads per column; 0 means no cap.
	MaxDepth int
	// When End > 0, only columns in [Start, End) are produced.  Positions
	// before Start are never examined.
	Start, End int
}

// DefaultColumnOpts mirrors the htslib pileup defaults.
var DefaultColumnOpts = ColumnOpts{
	SkipFlags: DefaultSkipFlags,
	MaxDepth:  DefaultMaxDepth,
}

// ColumnIterator yields, in increasing position order, one Column for every
// reference position covered by at least one of the reads produced by a
// RecordIterator.  It is meant for small fetch windows (a handful of
// positions), so it buffers every read from the window before producing the
// first column.
//
// Usage:
//   cols := pileup.NewColumnIterator(iter, pileup.DefaultColumnOpts)
//   for cols.Scan() {
//     col := cols.Column()
//     ...
//   }
//   if err := cols.Err(); err != nil { ... }
//
// The caller remains responsible for closing the underlying RecordIterator.
type ColumnIterator struct {
	iter   RecordIterator
	opts   ColumnOpts
	loaded bool
	reads  []*sam.Record
	ref    string
	pos    int // next position to examine
	end    int // 1 + last position covered by any read
	col    Column
	err    error
}

// NewColumnIterator creates a ColumnIterator over the reads of iter.
func NewColumnIterator(iter RecordIterator, opts ColumnOpts) *ColumnIterator {
	return &ColumnIterator{iter: iter, opts: opts}
}

func (c *ColumnIterator) load() {
	for c.iter.Scan() {
		r := c.iter.Record()
		if (r.Flags&c.opts.SkipFlags != 0) || (len(r.Cigar) == 0) || (r.Ref == nil) {
			continue
		}
		if len(c.reads) == 0 {
			c.ref = r.Ref.Name()
			c.pos = r.Pos
			c.end = r.End()
		} else {
			if r.Pos < c.pos {
				c.pos = r.Pos
			}
			if e := r.End(); e > c.end {
				c.end = e
			}
		}
		c.reads = append(c.reads, r)
	}
	c.err = c.iter.Err()
	if c.opts.End > 0 {
		if c.pos < c.opts.Start {
			c.pos = c.opts.Start
		}
		if c.end > c.opts.End {
			c.end = c.opts.End
		}
	}
}

// Scan advances to the next nonempty column.  It returns false at the end of
// the window, or on error.
func (c *ColumnIterator) Scan() bool {
	if !c.loaded {
		c.loaded = true
		c.load()
	}
	if c.err != nil {
		return false
	}
	for ; c.pos < c.end; c.pos++ {
		col := Column{
			Ref: c.ref,
			Pos: c.pos,
		}
		for _, r := range c.reads {
			if (c.opts.MaxDepth > 0) && (len(col.Reads) >= c.opts.MaxDepth) {
				break
			}
			if (c.pos < r.Pos) || (c.pos >= r.End()) {
				continue
			}
			a, ok := alignAt(r, c.pos)
			if !ok {
				continue
			}
			col.Reads = append(col.Reads, &a)
		}
		if len(col.Reads) == 0 {
			// Gap between reads; htslib doesn't report empty columns either.
			continue
		}
		col.Depth = len(col.Reads)
		c.col = col
		c.pos++
		return true
	}
	return false
}

// Column returns the current column.  It must be called only after Scan
// returned true, and the result is only valid until the next Scan.
func (c *ColumnIterator) Column() *Column {
	return &c.col
}

// Err returns the error reported by the underlying RecordIterator, if any.
func (c *ColumnIterator) Err() error {
	return c.err
}
