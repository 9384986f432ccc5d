package bamprovider

import (
	"context"
	"fmt"
	"testing"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

// NewRecord creates a mapped record for tests.  qual is filled with a
// constant Phred 30 when seq is nonempty.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, mapq byte, cigar sam.Cigar, seq string) *sam.Record {
	r := &sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     pos,
		MapQ:    mapq,
		Flags:   flags,
		Cigar:   cigar,
		MatePos: -1,
		Seq:     sam.NewSeq([]byte(seq)),
		Qual:    make([]byte, len(seq)),
	}
	for i := range r.Qual {
		r.Qual[i] = 30
	}
	return r
}

// NewAux creates an aux field, panicking on error.
func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// WriteBAM writes recs, which must be coordinate sorted, to a BAM file at
// path and indexes it with WriteIndex.
func WriteBAM(t testing.TB, path string, header *sam.Header, recs []*sam.Record) {
	WriteUnindexedBAM(t, path, header, recs)
	require.NoError(t, WriteIndex(context.Background(), path, ""))
}

// WriteUnindexedBAM writes recs to a BAM file at path, without an index.
func WriteUnindexedBAM(t testing.TB, path string, header *sam.Header, recs []*sam.Record) {
	ctx := context.Background()
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close(ctx))
}

// NewTestHeader creates a header with the given reference names, each 1Mbp
// long.
func NewTestHeader(t testing.TB, names ...string) *sam.Header {
	var refs []*sam.Reference
	for _, n := range names {
		ref, err := sam.NewReference(n, "", "", 1000000, nil, nil)
		require.NoError(t, err)
		refs = append(refs, ref)
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	return header
}
