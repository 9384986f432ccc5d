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
package depth_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/JianYang-Lab/depthmate/encoding/bamprovider"
	"github.com/JianYang-Lab/depthmate/pileup/depth"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	status := m.Run()
	shutdown()
	os.Exit(status)
}

const runVCF = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	100	.	A	T	.	PASS	.
chr1	5000	.	G	A	.	PASS	.
chrUn	10	.	C	T	.	PASS	.
`

// writeRunInputs writes indexed normal and tumor BAMs plus a VCF to dir, and
// returns options pointing at them.
func writeRunInputs(t *testing.T, dir string) depth.Opts {
	header := bamprovider.NewTestHeader(t, "chr1", "chr2")
	chr1 := header.Refs()[0]
	normal := []*sam.Record{
		bamprovider.NewRecord("n1", chr1, 97, 0, 60, match(5), "GGAGG"),
		bamprovider.NewRecord("n2", chr1, 99, 0, 60, match(3), "ACC"),
		// Masked by the pileup defaults: not even counted in all_depth.
		bamprovider.NewRecord("n3", chr1, 99, sam.Duplicate, 60, match(3), "TCC"),
	}
	tumor := []*sam.Record{
		// Deletion over the variant.
		bamprovider.NewRecord("t5", chr1, 97, 0, 60, sam.Cigar{
			sam.NewCigarOp(sam.CigarMatch, 2),
			sam.NewCigarOp(sam.CigarDeletion, 2),
			sam.NewCigarOp(sam.CigarMatch, 2),
		}, "GGCC"),
		withCB(bamprovider.NewRecord("t1", chr1, 98, 0, 60, match(4), "CTGG"), "AAAC-1"),
		bamprovider.NewRecord("t2", chr1, 99, 0, 60, match(2), "TG"),
		// Low mapping quality.
		bamprovider.NewRecord("t3", chr1, 99, 0, 5, match(2), "AG"),
		// Reference base followed by an insertion.
		bamprovider.NewRecord("t4", chr1, 99, 0, 60, sam.Cigar{
			sam.NewCigarOp(sam.CigarMatch, 1),
			sam.NewCigarOp(sam.CigarInsertion, 1),
			sam.NewCigarOp(sam.CigarMatch, 2),
		}, "AGCC"),
	}
	opts := depth.DefaultOpts
	opts.NormalPath = filepath.Join(dir, "normal.bam")
	opts.TumorPath = filepath.Join(dir, "tumor.bam")
	opts.VCFPath = filepath.Join(dir, "calls.vcf")
	opts.OutputPath = filepath.Join(dir, "depth.tsv")
	bamprovider.WriteBAM(t, opts.NormalPath, header, normal)
	bamprovider.WriteBAM(t, opts.TumorPath, header, tumor)
	assert.NoError(t, ioutil.WriteFile(opts.VCFPath, []byte(runVCF), 0644))
	return opts
}

func TestRun(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	opts := writeRunInputs(t, tmpDir)
	for _, threads := range []int{1, 4} {
		opts.Threads = threads
		assert.NoError(t, depth.Run(vcontext.Background(), &opts))
		expect.EQ(t, readOutput(t, opts.OutputPath),
			"chrom\tpos\tall_depth\talt_depth\tref_depth\tother_depth\tindel_n_lowq\ttntype\tvaf\tbarcode\n"+
				"chr1\t100\t2\t0\t2\t0\t0\tN\t0\t\n"+
				"chr1\t100\t3\t2\t1\t0\t3\tT\t0.6666666666666666\tAAAC-1,NA,\n")
	}
}

func TestRunExplicitIndex(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpDir)
	opts := writeRunInputs(t, tmpDir)
	opts.TumorIndexPath = filepath.Join(tmpDir, "tumor.index")
	assert.NoError(t, os.Rename(opts.TumorPath+".bai", opts.TumorIndexPath))
	opts.OutputPath = filepath.Join(tmpDir, "depth.csv")
	opts.MinMapQ = 0
	assert.NoError(t, depth.Run(vcontext.Background(), &opts))
	expect.EQ(t, readOutput(t, opts.OutputPath),
		"chrom,pos,all_depth,alt_depth,ref_depth,other_depth,indel_n_lowq,tntype,vaf,barcode\n"+
			"chr1,100,2,0,2,0,0,N,0,\n"+
			"chr1,100,4,2,2,0,2,T,0.5,\"AAAC-1,NA,\"\n")
}

func TestRunInvalidOpts(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	valid := writeRunInputs(t, tmpDir)
	tests := []func(o *depth.Opts){
		func(o *depth.Opts) { o.NormalPath = "" },
		func(o *depth.Opts) { o.TumorPath = "" },
		func(o *depth.Opts) { o.VCFPath = "" },
		func(o *depth.Opts) { o.OutputPath = "" },
		func(o *depth.Opts) { o.Threads = 0 },
		func(o *depth.Opts) { o.MinMapQ = 256 },
		func(o *depth.Opts) { o.MinMapQ = -1 },
		func(o *depth.Opts) { o.IncludeFlags = 0x10000 },
		func(o *depth.Opts) { o.ExcludeFlags = -2 },
		func(o *depth.Opts) { o.MaxDepth = 0 },
		func(o *depth.Opts) { o.BarcodeTag = "CBX" },
	}
	for i, mutate := range tests {
		opts := valid
		mutate(&opts)
		err := depth.Run(vcontext.Background(), &opts)
		expect.True(t, errors.Is(errors.Invalid, err), "case %d: %v", i, err)
	}
}

func TestRunFatalInputs(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	valid := writeRunInputs(t, tmpDir)

	opts := valid
	opts.VCFPath = filepath.Join(tmpDir, "missing.vcf")
	expect.NotNil(t, depth.Run(vcontext.Background(), &opts))

	opts = valid
	opts.NormalPath = filepath.Join(tmpDir, "missing.bam")
	expect.NotNil(t, depth.Run(vcontext.Background(), &opts))

	// Unindexed tumor BAM.
	opts = valid
	assert.NoError(t, os.Remove(opts.TumorPath+".bai"))
	expect.NotNil(t, depth.Run(vcontext.Background(), &opts))
	_, err := os.Stat(opts.OutputPath)
	expect.True(t, os.IsNotExist(err))
}
