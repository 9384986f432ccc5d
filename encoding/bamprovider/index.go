package bamprovider

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bam"
)

// DefaultIndexPath returns the conventional BAI path for a BAM file.
func DefaultIndexPath(bamPath string) string {
	return bamPath + ".bai"
}

// WriteIndex reads the coordinate-sorted BAM file at bamPath and writes a BAI
// index for it to indexPath.  If indexPath is "", DefaultIndexPath(bamPath) is
// used.  Unsorted input is reported as an errors.Integrity error.
func WriteIndex(ctx context.Context, bamPath, indexPath string) (err error) {
	if indexPath == "" {
		indexPath = DefaultIndexPath(bamPath)
	}
	in, err := file.Open(ctx, bamPath)
	if err != nil {
		return errors.E(err, "bamprovider: open", bamPath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return errors.E(errors.Invalid, err, "bamprovider: read header", bamPath)
	}
	defer reader.Close() // nolint: errcheck

	var (
		idx   bam.Index
		nRecs int
	)
	for {
		rec, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errors.E(errors.Invalid, rerr, "bamprovider: read", bamPath)
		}
		if aerr := idx.Add(rec, reader.LastChunk()); aerr != nil {
			return errors.E(errors.Integrity, aerr, "bamprovider: index", bamPath)
		}
		nRecs++
	}

	out, err := file.Create(ctx, indexPath)
	if err != nil {
		return errors.E(err, "bamprovider: create", indexPath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = bam.WriteIndex(out.Writer(ctx), &idx); err != nil {
		return errors.E(err, "bamprovider: write index", indexPath)
	}
	log.Debug.Printf("bamprovider: indexed %d records of %s into %s", nRecs, bamPath, indexPath)
	return nil
}
