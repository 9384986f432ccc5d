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

// Package pileup turns coordinate-sorted alignments into per-position
// columns, in the same shape htslib's pileup engine produces: every read
// overlapping a reference position, annotated with what the read shows at
// that position (a base, a deletion, or a reference skip) and whether an
// insertion follows it.
package pileup

import (
	"github.com/grailbio/hts/sam"
)

// Common pileup components.

// Seq8ToASCIITable is the .bam seq nibble -> ASCII mapping.
var Seq8ToASCIITable = [...]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// DefaultSkipFlags is the set of FLAG bits which keep a read out of every
// column.  It matches htslib's BAM_DEF_MASK, so depths agree with
// samtools/rust-htslib pileups.
const DefaultSkipFlags = sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate

// DefaultMaxDepth is the per-column read cap (htslib's default maxcnt).
const DefaultMaxDepth = 8000

// seqBase returns the ASCII base at 0-based query position qpos of samr, or
// false if the record carries no base there.
func seqBase(samr *sam.Record, qpos int) (byte, bool) {
	if qpos < 0 || qpos >= samr.Seq.Length {
		return 0, false
	}
	doublet := byte(samr.Seq.Seq[qpos>>1])
	if qpos&1 == 0 {
		doublet >>= 4
	}
	return Seq8ToASCIITable[doublet&0xf], true
}
