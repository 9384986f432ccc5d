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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/JianYang-Lab/depthmate/pileup/depth"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

// registerFlags registers every option of opts under its long name and, where
// it has one, a one-letter alias.  The current values of opts are the
// defaults.
func registerFlags(fs *flag.FlagSet, opts *depth.Opts) {
	stringVar := func(p *string, short, long, usage string) {
		fs.StringVar(p, long, *p, usage)
		alias(fs, short, long)
	}
	intVar := func(p *int, short, long, usage string) {
		fs.IntVar(p, long, *p, usage)
		alias(fs, short, long)
	}
	stringVar(&opts.NormalPath, "n", "normal", "Indexed normal BAM path")
	stringVar(&opts.TumorPath, "t", "tumor", "Indexed tumor BAM path")
	stringVar(&opts.VCFPath, "v", "vcf", "VCF path; may be gzip/bgzip compressed")
	stringVar(&opts.OutputPath, "o", "output", "Output path; *.csv for CSV, else TSV, .gz suffix to bgzip")
	intVar(&opts.IncludeFlags, "i", "include-flags", "Only count reads with all of these FLAG bits set")
	intVar(&opts.ExcludeFlags, "e", "exclude-flags", "Skip reads with any of these FLAG bits set")
	intVar(&opts.MinMapQ, "m", "min-mapq", "Reads with MAPQ below this level are counted as low quality")
	intVar(&opts.Threads, "@", "threads", "Number of variant/sample tasks to run in parallel")
	stringVar(&opts.NormalIndexPath, "", "normal-index", "Normal BAM index path. Defaults to normal + .bai")
	stringVar(&opts.TumorIndexPath, "", "tumor-index", "Tumor BAM index path. Defaults to tumor + .bai")
	stringVar(&opts.BarcodeTag, "", "barcode-tag", "Aux tag reported for alt-supporting reads")
	intVar(&opts.MaxDepth, "", "max-depth", "Maximum number of reads per pileup column")
}

// alias makes -short set the same value as -long.  A flag already registered
// under the short name (vlog's -v on flag.CommandLine) is taken over.
func alias(fs *flag.FlagSet, short, long string) {
	if short == "" {
		return
	}
	lf := fs.Lookup(long)
	usage := "Shorthand for -" + long
	if f := fs.Lookup(short); f != nil {
		f.Value, f.Usage, f.DefValue = lf.Value, usage, lf.DefValue
		return
	}
	fs.Var(lf.Value, short, usage)
}

func depthmateUsage() {
	fmt.Printf("Usage: %s -n normal.bam -t tumor.bam -v calls.vcf -o out.csv [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	opts := depth.DefaultOpts
	registerFlags(flag.CommandLine, &opts)
	flag.Usage = depthmateUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("Unexpected positional arguments; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if err := depth.Run(vcontext.Background(), &opts); err != nil {
		log.Fatalf("depthmate: %v", err)
	}
	log.Debug.Printf("exiting")
}
