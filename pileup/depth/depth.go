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

// Package depth computes read-depth statistics at variant positions for a
// tumor sample and its matched normal: how many reads show the reference
// base, the alternate base, some other base, or a gap / low-quality read,
// plus the variant-allele fraction and the barcodes of alt-supporting reads.
package depth

import (
	"context"
	"fmt"

	"github.com/JianYang-Lab/depthmate/encoding/bamprovider"
	"github.com/JianYang-Lab/depthmate/encoding/vcf"
	"github.com/JianYang-Lab/depthmate/pileup"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

type Opts struct {
	// Commandline options.
	NormalPath      string
	TumorPath       string
	VCFPath         string
	OutputPath      string
	NormalIndexPath string
	TumorIndexPath  string
	IncludeFlags    int
	ExcludeFlags    int
	MinMapQ         int
	Threads         int
	BarcodeTag      string
	MaxDepth        int
}

var DefaultOpts = Opts{
	IncludeFlags: 0,
	ExcludeFlags: 0,
	MinMapQ:      20,
	Threads:      1,
	BarcodeTag:   "CB",
	MaxDepth:     pileup.DefaultMaxDepth,
}

func (o *Opts) validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.E(errors.Invalid, fmt.Sprintf("depth: "+format, args...))
	}
	switch {
	case o.NormalPath == "":
		return invalid("normal BAM path is required")
	case o.TumorPath == "":
		return invalid("tumor BAM path is required")
	case o.VCFPath == "":
		return invalid("VCF path is required")
	case o.OutputPath == "":
		return invalid("output path is required")
	case o.Threads < 1:
		return invalid("threads must be >= 1, got %d", o.Threads)
	case o.MinMapQ < 0 || o.MinMapQ > 255:
		return invalid("min-mapq must be in [0, 255], got %d", o.MinMapQ)
	case o.IncludeFlags < 0 || o.IncludeFlags > 0xffff:
		return invalid("include-flags must be in [0, 0xffff], got %d", o.IncludeFlags)
	case o.ExcludeFlags < 0 || o.ExcludeFlags > 0xffff:
		return invalid("exclude-flags must be in [0, 0xffff], got %d", o.ExcludeFlags)
	case o.MaxDepth < 1:
		return invalid("max-depth must be >= 1, got %d", o.MaxDepth)
	case len(o.BarcodeTag) != 2:
		return invalid("barcode-tag must be two characters, got %q", o.BarcodeTag)
	}
	return nil
}

// Run loads the variants, computes a record for every variant in both BAMs,
// and writes the table to opts.OutputPath.  Invalid options, an unreadable
// VCF, a missing or unindexed BAM, and an unwritable output are errors.
// Per-variant failures are only logged.
func Run(ctx context.Context, opts *Opts) (err error) {
	// 1. Validate options.
	// 2. Load variants, open both BAMs.
	// 3. Dispatch, then write the table.
	if err = opts.validate(); err != nil {
		return
	}
	var variants []vcf.Variant
	if variants, err = vcf.Load(ctx, opts.VCFPath); err != nil {
		return
	}
	log.Printf("Number of variants: %d", len(variants))

	paths := map[SampleType]string{Normal: opts.NormalPath, Tumor: opts.TumorPath}
	providers := map[SampleType]bamprovider.Provider{
		Normal: bamprovider.NewProvider(opts.NormalPath, bamprovider.ProviderOpts{Index: opts.NormalIndexPath}),
		Tumor:  bamprovider.NewProvider(opts.TumorPath, bamprovider.ProviderOpts{Index: opts.TumorIndexPath}),
	}
	defer func() {
		for _, st := range DefaultSampleTypes {
			// Task failures were logged already; the provider reports them
			// again on Close.
			if e := providers[st].Close(); e != nil && err == nil {
				log.Debug.Printf("depth: close %s: %v", paths[st], e)
			}
		}
	}()
	for _, st := range DefaultSampleTypes {
		if _, err = providers[st].GetHeader(); err != nil {
			return errors.E(err, fmt.Sprintf("depth: %v BAM", st))
		}
	}

	pool, err := NewWorkerPool(opts.Threads)
	if err != nil {
		return
	}
	d := &Dispatcher{
		Providers: providers,
		Filter: FlagFilter{
			IncludeFlags: sam.Flags(opts.IncludeFlags),
			ExcludeFlags: sam.Flags(opts.ExcludeFlags),
			MinMapQ:      byte(opts.MinMapQ),
		},
		Pool: pool,
		ColumnOpts: pileup.ColumnOpts{
			SkipFlags: pileup.DefaultSkipFlags,
			MaxDepth:  opts.MaxDepth,
		},
		BarcodeTag: opts.BarcodeTag,
	}
	var recs []PositionRecord
	if recs, err = d.Run(ctx, variants, DefaultSampleTypes); err != nil {
		return
	}
	if err = WriteRecords(ctx, opts.OutputPath, recs); err != nil {
		return
	}
	log.Printf("depth: wrote %d records to %s", len(recs), opts.OutputPath)
	return nil
}
