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
	"math"
	"strings"
)

// SampleType says which of the paired BAMs a record was computed from.  The
// values are the ASCII letters used in the tntype output column.
type SampleType byte

const (
	// Normal is the matched-normal sample.
	Normal SampleType = 'N'
	// Tumor is the tumor sample.
	Tumor SampleType = 'T'
)

// DefaultSampleTypes is the per-variant task order.
var DefaultSampleTypes = []SampleType{Normal, Tumor}

// String returns "N" or "T".
func (s SampleType) String() string {
	return string(rune(s))
}

// MissingBarcode stands in for an alt-supporting read without a barcode tag.
const MissingBarcode = "NA"

// PositionRecord holds the depth statistics of one sample at one variant
// position.
//
// Every read of the column lands in exactly one of RefDepth, AltDepth,
// OtherDepth and IndelOrLowQ, except that a read followed by an insertion is
// counted in IndelOrLowQ as well (see Aggregate).  With D the column depth and
// I the number of such reads,
//   D + I == RefDepth + AltDepth + OtherDepth + IndelOrLowQ
// Filtered reads and gaps leave AllDepth, so AllDepth + IndelOrLowQ == D + I.
type PositionRecord struct {
	Chrom string
	// Pos is 1-based.
	Pos int
	// AllDepth starts at the column's raw depth; reads that fail the filter or
	// show a deletion/skip are subtracted.
	AllDepth    int
	AltDepth    int
	RefDepth    int
	OtherDepth  int
	IndelOrLowQ int
	SampleType  SampleType
	// VAF is AltDepth/AllDepth, or NaN when AllDepth is zero.
	VAF float64
	// Barcodes has one entry per alt-supporting read, in column order.
	Barcodes []string
}

// Barcode renders Barcodes as one comma-terminated string, e.g. "AAC-1,NA,".
func (r *PositionRecord) Barcode() string {
	var sb strings.Builder
	for _, b := range r.Barcodes {
		sb.WriteString(b)
		sb.WriteByte(',')
	}
	return sb.String()
}

func vaf(alt, all int) float64 {
	if all == 0 {
		return math.NaN()
	}
	return float64(alt) / float64(all)
}
