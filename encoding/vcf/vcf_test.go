package vcf_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JianYang-Lab/depthmate/encoding/vcf"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVCF = `##fileformat=VCFv4.2
##contig=<ID=chr1,length=248956422>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	100	.	A	T	50	PASS	.
chr1	200	rs1	g	c,A	50	PASS	DP=10
chr2	5	.	ACGT	TTT	.	.	.
chrM	7	.	C	G
`

func TestParse(t *testing.T) {
	variants, err := vcf.Parse(strings.NewReader(testVCF), "test.vcf")
	require.NoError(t, err)
	assert.Equal(t, []vcf.Variant{
		{Chrom: "chr1", Pos: 100, Ref: 'A', Alt: 'T'},
		{Chrom: "chr1", Pos: 200, Ref: 'G', Alt: 'C'},
		{Chrom: "chr2", Pos: 5, Ref: 'A', Alt: 'T'},
		{Chrom: "chrM", Pos: 7, Ref: 'C', Alt: 'G'},
	}, variants)
	assert.Equal(t, "chr1:100 A>T", variants[0].String())
}

func TestParseEmpty(t *testing.T) {
	variants, err := vcf.Parse(strings.NewReader("##fileformat=VCFv4.2\n#CHROM\tPOS\n"), "empty.vcf")
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		msg  string
	}{
		{"chr1\t100\t.\tA", "columns"},
		{"chr1\t.\t.\tA\tT", "POS"},
		{"chr1\t0\t.\tA\tT", "POS"},
		{"chr1\tx12\t.\tA\tT", "POS"},
		{"chr1\t10\t.\t\tT", "REF"},
		{"chr1\t10\t.\tA\t.", "ALT"},
		{"\t10\t.\tA\tT", "CHROM"},
	}
	for _, test := range tests {
		_, err := vcf.Parse(strings.NewReader("#header\n"+test.line+"\n"), "bad.vcf")
		require.Error(t, err, test.line)
		perr, ok := err.(*vcf.ParseError)
		require.True(t, ok, "%T", err)
		assert.Equal(t, "bad.vcf", perr.Path)
		assert.Equal(t, 2, perr.Line)
		assert.Contains(t, perr.Msg, test.msg)
	}
}

func TestLoad(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	plain := filepath.Join(tmpDir, "calls.vcf")
	require.NoError(t, ioutil.WriteFile(plain, []byte(testVCF), 0644))
	variants, err := vcf.Load(ctx, plain)
	require.NoError(t, err)
	assert.Len(t, variants, 4)

	var buf strings.Builder
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write([]byte(testVCF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	compressed := filepath.Join(tmpDir, "calls.vcf.gz")
	require.NoError(t, ioutil.WriteFile(compressed, []byte(buf.String()), 0644))
	gzVariants, err := vcf.Load(ctx, compressed)
	require.NoError(t, err)
	assert.Equal(t, variants, gzVariants)
}

func TestLoadMissing(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	_, err := vcf.Load(context.Background(), filepath.Join(tmpDir, "nonexistent.vcf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vcf: open")
}
