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

// AlignedRead is one read's view of a single pileup column.
type AlignedRead interface {
	// Flags returns the read's SAM FLAG field.
	Flags() sam.Flags
	// MapQ returns the read's mapping quality.
	MapQ() byte
	// Base returns the ASCII base the read shows at the column position.  It
	// returns false if the read has no base there: either the position falls in
	// a deletion/skip, or the record carries no SEQ.
	Base() (byte, bool)
	// IsDelOrRefSkip is true when the column position falls in a D or N CIGAR
	// operation.
	IsDelOrRefSkip() bool
	// HasFollowingInsertion is true when the read's aligned base is the last
	// one before an I CIGAR operation.
	HasFollowingInsertion() bool
	// Tag returns the value of a string (type Z) aux field.
	Tag(name string) (string, bool)
}

// Alignment is the AlignedRead implementation backed by a sam.Record.  The
// fields follow htslib's bam_pileup1_t.
type Alignment struct {
	Rec *sam.Record
	// Qpos is the 0-based query position.  For deletions and skips it is the
	// position of the last base before the gap.
	Qpos int
	// Indel > 0 is the length of an insertion following this base, Indel < 0
	// the length of a deletion following it.
	Indel   int
	Del     bool
	RefSkip bool
}

// Column is the pileup at a single reference position.
type Column struct {
	// Ref is the reference (contig) name.
	Ref string
	// Pos is the 0-based reference position.
	Pos int
	// Depth is the raw number of reads in the column, after the skip-flag mask
	// and depth cap were applied.
	Depth int
	Reads []AlignedRead
}

// Flags implements AlignedRead.
func (a *Alignment) Flags() sam.Flags { return a.Rec.Flags }

// MapQ implements AlignedRead.
func (a *Alignment) MapQ() byte { return a.Rec.MapQ }

// IsDel reports whether the position is deleted in this read.  Like htslib,
// this is also true for reference skips.
func (a *Alignment) IsDel() bool { return a.Del }

// IsRefSkip reports whether the position falls in an N CIGAR operation.
func (a *Alignment) IsRefSkip() bool { return a.RefSkip }

// IsDelOrRefSkip implements AlignedRead.
func (a *Alignment) IsDelOrRefSkip() bool { return a.RefSkip || a.Del }

// HasFollowingInsertion implements AlignedRead.
func (a *Alignment) HasFollowingInsertion() bool { return a.Indel > 0 }

// Base implements AlignedRead.
func (a *Alignment) Base() (byte, bool) {
	if a.Del || a.RefSkip {
		return 0, false
	}
	return seqBase(a.Rec, a.Qpos)
}

// Tag implements AlignedRead.
func (a *Alignment) Tag(name string) (string, bool) {
	if len(name) != 2 {
		return "", false
	}
	aux, ok := a.Rec.Tag([]byte(name))
	if !ok {
		return "", false
	}
	s, ok := aux.Value().(string)
	return s, ok
}

// alignAt locates reference position pos within samr by walking its CIGAR.
// It returns false if pos is outside the read's aligned span, or inside a
// clip.
func alignAt(samr *sam.Record, pos int) (Alignment, bool) {
	refPos := samr.Pos
	if pos < refPos {
		return Alignment{}, false
	}
	qpos := 0
	cigar := samr.Cigar
	for i, co := range cigar {
		cLen := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if pos < refPos+cLen {
				a := Alignment{
					Rec:  samr,
					Qpos: qpos + (pos - refPos),
				}
				if pos == refPos+cLen-1 {
					a.Indel = followingIndel(cigar[i+1:])
				}
				return a, true
			}
			refPos += cLen
			qpos += cLen
		case sam.CigarDeletion, sam.CigarSkipped:
			if pos < refPos+cLen {
				// Same convention as htslib: qpos points at the preceding base,
				// and a skip is flagged as a deletion too.
				return Alignment{
					Rec:     samr,
					Qpos:    qpos - 1,
					Del:     true,
					RefSkip: co.Type() == sam.CigarSkipped,
				}, true
			}
			refPos += cLen
		case sam.CigarInsertion, sam.CigarSoftClipped:
			qpos += cLen
		case sam.CigarHardClipped, sam.CigarPadded:
			// Consumes neither reference nor query.
		}
	}
	return Alignment{}, false
}

// followingIndel returns the htslib-style indel value for the CIGAR ops that
// follow the last base of a match block.  Padding between the block and the
// indel is skipped.
func followingIndel(rest sam.Cigar) int {
	for _, co := range rest {
		switch co.Type() {
		case sam.CigarPadded:
			continue
		case sam.CigarInsertion:
			return co.Len()
		case sam.CigarDeletion:
			return -co.Len()
		}
		return 0
	}
	return 0
}
