// Package vcf reads the handful of VCF columns needed to locate
// single-nucleotide variants: CHROM, POS, REF and the first ALT allele.
package vcf

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
	minColumns     = 5
)

// Variant is one VCF data line, truncated to a single reference and alternate
// base.
type Variant struct {
	Chrom string
	// Pos is the 1-based POS column.
	Pos int
	// Ref is the first base of REF, upper-cased.
	Ref byte
	// Alt is the first base of the first ALT allele, upper-cased.
	Alt byte
}

// String returns "chrom:pos ref>alt".
func (v Variant) String() string {
	return fmt.Sprintf("%s:%d %c>%c", v.Chrom, v.Pos, v.Ref, v.Alt)
}

// ParseError reports a malformed data line.
type ParseError struct {
	Path string
	// Line is 1-based.
	Line int
	Msg  string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// Load reads all variants from the VCF file at path.  Files ending in ".gz"
// are gunzipped; bgzip output is valid gzip.
func Load(ctx context.Context, path string) (variants []Variant, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "vcf: open %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz, gzErr := gzip.NewReader(r)
		if gzErr != nil {
			return nil, errors.Wrapf(gzErr, "vcf: gunzip %s", path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}
	return Parse(r, path)
}

// Parse reads variants from r.  name is used only in error messages.
func Parse(r io.Reader, name string) ([]Variant, error) {
	var variants []Variant
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		v, msg := parseLine(string(line))
		if msg != "" {
			return nil, &ParseError{Path: name, Line: lineno, Msg: msg}
		}
		variants = append(variants, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "vcf: read %s", name)
	}
	return variants, nil
}

// parseLine parses one data line.  On failure it returns a nonempty
// description of the problem.
func parseLine(line string) (Variant, string) {
	cols := strings.SplitN(line, "\t", minColumns+1)
	if len(cols) < minColumns {
		return Variant{}, fmt.Sprintf("expected at least %d tab-separated columns, found %d", minColumns, len(cols))
	}
	chrom, posStr, ref, alt := cols[0], cols[1], cols[3], cols[4]
	if chrom == "" {
		return Variant{}, "empty CHROM"
	}
	pos, err := strconv.Atoi(posStr)
	if err != nil || pos <= 0 {
		return Variant{}, fmt.Sprintf("missing or invalid POS %q", posStr)
	}
	if ref == "" || ref == "." {
		return Variant{}, "missing REF"
	}
	if i := strings.IndexByte(alt, ','); i >= 0 {
		alt = alt[:i]
	}
	if alt == "" || alt == "." {
		return Variant{}, "missing ALT"
	}
	return Variant{
		Chrom: chrom,
		Pos:   pos,
		Ref:   upper(ref[0]),
		Alt:   upper(alt[0]),
	}, ""
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
