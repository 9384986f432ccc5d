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
	"github.com/grailbio/hts/sam"
)

// ReadFilter decides whether a read may contribute a base to a position
// record.
type ReadFilter interface {
	Passes(flags sam.Flags, mapq byte) bool
}

// FlagFilter is the samtools-style -f/-F/-q read filter.
type FlagFilter struct {
	// IncludeFlags: every bit must be set in the read's FLAG.
	IncludeFlags sam.Flags
	// ExcludeFlags: no bit may be set in the read's FLAG.
	ExcludeFlags sam.Flags
	MinMapQ      byte
}

// DefaultFilter keeps every read with mapping quality >= 20.
var DefaultFilter = FlagFilter{MinMapQ: 20}

// Passes implements ReadFilter.
func (f FlagFilter) Passes(flags sam.Flags, mapq byte) bool {
	return (^flags)&f.IncludeFlags == 0 &&
		flags&f.ExcludeFlags == 0 &&
		mapq >= f.MinMapQ
}
