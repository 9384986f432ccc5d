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
	"fmt"

	"github.com/JianYang-Lab/depthmate/pileup"
	"github.com/grailbio/base/errors"
)

// Aggregate classifies every read of col against the variant's ref and alt
// bases, and returns the resulting record for sample type st.
//
// AllDepth starts at col.Depth. A read that fails filter, or that has a
// deletion or reference skip at the position, is moved from AllDepth to
// IndelOrLowQ. Any other read contributes its base to RefDepth, AltDepth or
// OtherDepth; alt reads also add the value of their barcodeTag aux field (or
// MissingBarcode) to Barcodes.
//
// A read whose base is followed by an insertion additionally increments
// IndelOrLowQ while staying in AllDepth, so such records over-count by one per
// insertion. Downstream tables depend on these numbers, so the behavior is
// kept as is.
//
// A read that is neither a gap nor has a base (no SEQ) yields an
// errors.Integrity error.
func Aggregate(col *pileup.Column, st SampleType, ref, alt byte, filter ReadFilter, barcodeTag string) (PositionRecord, error) {
	rec := PositionRecord{
		Chrom:      col.Ref,
		Pos:        col.Pos + 1,
		AllDepth:   col.Depth,
		SampleType: st,
	}
	for _, read := range col.Reads {
		if !filter.Passes(read.Flags(), read.MapQ()) {
			rec.AllDepth--
			rec.IndelOrLowQ++
			continue
		}
		if read.IsDelOrRefSkip() {
			rec.IndelOrLowQ++
			rec.AllDepth--
			continue
		}
		base, ok := read.Base()
		if !ok {
			return PositionRecord{}, errors.E(errors.Integrity,
				fmt.Sprintf("depth: aligned read without a base at %s:%d", col.Ref, col.Pos+1))
		}
		switch base {
		case ref:
			rec.RefDepth++
		case alt:
			rec.AltDepth++
			barcode, ok := read.Tag(barcodeTag)
			if !ok {
				barcode = MissingBarcode
			}
			rec.Barcodes = append(rec.Barcodes, barcode)
		default:
			rec.OtherDepth++
		}
		if read.HasFollowingInsertion() {
			// No AllDepth decrement here.
			rec.IndelOrLowQ++
		}
	}
	rec.VAF = vaf(rec.AltDepth, rec.AllDepth)
	return rec, nil
}
