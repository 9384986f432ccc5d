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
package depth

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/JianYang-Lab/depthmate/encoding/bamprovider"
	"github.com/JianYang-Lab/depthmate/encoding/vcf"
	"github.com/JianYang-Lab/depthmate/pileup"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Dispatcher computes a PositionRecord for every (variant, sample type) pair.
type Dispatcher struct {
	// Providers maps each sample type to the BAM it is read from.
	Providers  map[SampleType]bamprovider.Provider
	Filter     ReadFilter
	Pool       *WorkerPool
	ColumnOpts pileup.ColumnOpts
	// BarcodeTag is the aux tag recorded for alt-supporting reads.
	BarcodeTag string
}

// Run fans the tasks variants x sampleTypes out over d.Pool.  Each task reads
// the 1bp window at the variant and yields at most one record; a task whose
// window has no coverage yields nothing.  A failing task (unknown contig, I/O
// error, malformed read) is logged and yields nothing.  The returned error is
// non-nil only if the dispatcher itself is misconfigured, or ctx is done.
//
// Records are returned in task order: variant by variant, and sampleTypes
// order within a variant.
func (d *Dispatcher) Run(ctx context.Context, variants []vcf.Variant, sampleTypes []SampleType) ([]PositionRecord, error) {
	if d.Pool == nil {
		return nil, errors.E(errors.Invalid, "depth: dispatcher has no worker pool")
	}
	if d.Filter == nil {
		return nil, errors.E(errors.Invalid, "depth: dispatcher has no read filter")
	}
	for _, st := range sampleTypes {
		if d.Providers[st] == nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("depth: no BAM for sample type %v", st))
		}
	}

	nTasks := len(variants) * len(sampleTypes)
	slots := make([]*PositionRecord, nTasks)
	var nFailed int64
	log.Printf("depth: starting %d tasks (%d workers)", nTasks, d.Pool.Size())
	err := d.Pool.Each(nTasks, func(taskIdx int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := variants[taskIdx/len(sampleTypes)]
		st := sampleTypes[taskIdx%len(sampleTypes)]
		rec, err := d.runTask(v, st)
		if err != nil {
			log.Error.Printf("depth: %v [%v]: %v", v, st, err)
			atomic.AddInt64(&nFailed, 1)
			return nil
		}
		slots[taskIdx] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	recs := make([]PositionRecord, 0, nTasks)
	for _, rec := range slots {
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	log.Printf("depth: %d tasks done, %d records, %d failed", nTasks, len(recs), nFailed)
	return recs, nil
}

// runTask returns the record for one variant and sample type, or nil if no
// read covers the position.
func (d *Dispatcher) runTask(v vcf.Variant, st SampleType) (rec *PositionRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.E(errors.Integrity, fmt.Sprintf("depth: panic: %v", r))
		}
	}()
	region := bamprovider.Region{Ref: v.Chrom, Start: v.Pos - 1, End: v.Pos}
	iter := d.Providers[st].NewIterator(region)
	defer func() {
		e := iter.Close()
		switch {
		case e == nil || err != nil:
		case rec != nil:
			// The column was already read in full.
			log.Error.Printf("depth: %v [%v]: close: %v", v, st, e)
		default:
			err = e
		}
	}()
	opts := d.ColumnOpts
	opts.Start, opts.End = region.Start, region.End
	cols := pileup.NewColumnIterator(iter, opts)
	for cols.Scan() {
		col := cols.Column()
		if col.Pos != region.Start {
			break
		}
		r, err := Aggregate(col, st, v.Ref, v.Alt, d.Filter, d.BarcodeTag)
		if err != nil {
			return nil, err
		}
		log.Debug.Printf("depth: %v [%v]: depth %d alt %d", v, st, r.AllDepth, r.AltDepth)
		return &r, nil
	}
	return nil, cols.Err()
}
