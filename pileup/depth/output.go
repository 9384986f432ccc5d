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
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

// Columns is the header row of the output table.
var Columns = []string{
	"chrom", "pos", "all_depth", "alt_depth", "ref_depth", "other_depth",
	"indel_n_lowq", "tntype", "vaf", "barcode",
}

// WriteRecords writes recs to path as a table with a header row.  The format
// follows the file name: "*.csv" is comma-separated, anything else is
// tab-separated, and a trailing ".gz" bgzip-compresses either one.
func WriteRecords(ctx context.Context, path string, recs []PositionRecord) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "depth: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	w := out.Writer(ctx)
	name := path
	if strings.HasSuffix(name, ".gz") {
		name = strings.TrimSuffix(name, ".gz")
		bgzfWriter := bgzf.NewWriter(w, 1)
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bgzfWriter
	}
	if strings.HasSuffix(name, ".csv") {
		err = writeCSV(w, recs)
	} else {
		err = writeTSV(w, recs)
	}
	if err != nil {
		return errors.E(err, "depth: write", path)
	}
	return nil
}

func formatVAF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTSV(w io.Writer, recs []PositionRecord) (err error) {
	tsvw := tsv.NewWriter(w)
	for _, c := range Columns {
		tsvw.WriteString(c)
	}
	if err = tsvw.EndLine(); err != nil {
		return
	}
	for i := range recs {
		r := &recs[i]
		tsvw.WriteString(r.Chrom)
		tsvw.WriteUint32(uint32(r.Pos))
		tsvw.WriteUint32(uint32(r.AllDepth))
		tsvw.WriteUint32(uint32(r.AltDepth))
		tsvw.WriteUint32(uint32(r.RefDepth))
		tsvw.WriteUint32(uint32(r.OtherDepth))
		tsvw.WriteUint32(uint32(r.IndelOrLowQ))
		tsvw.WriteByte(byte(r.SampleType))
		tsvw.WriteString(formatVAF(r.VAF))
		tsvw.WriteString(r.Barcode())
		if err = tsvw.EndLine(); err != nil {
			return
		}
	}
	return tsvw.Flush()
}

func writeCSV(w io.Writer, recs []PositionRecord) error {
	csvw := csv.NewWriter(w)
	if err := csvw.Write(Columns); err != nil {
		return err
	}
	row := make([]string, len(Columns))
	for i := range recs {
		r := &recs[i]
		row[0] = r.Chrom
		row[1] = strconv.Itoa(r.Pos)
		row[2] = strconv.Itoa(r.AllDepth)
		row[3] = strconv.Itoa(r.AltDepth)
		row[4] = strconv.Itoa(r.RefDepth)
		row[5] = strconv.Itoa(r.OtherDepth)
		row[6] = strconv.Itoa(r.IndelOrLowQ)
		row[7] = r.SampleType.String()
		row[8] = formatVAF(r.VAF)
		row[9] = r.Barcode()
		if err := csvw.Write(row); err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}
