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

/*
Given a tumor BAM, its matched normal BAM and a VCF of single-nucleotide
variants, depthmate reports for every variant and sample how many reads show
the reference base, the alternate base, another base, or a gap / low-quality
read, along with the variant-allele fraction and the cell barcodes (CB tag) of
the alt-supporting reads.

Both BAMs must be coordinate sorted and indexed; depthmate-index can write the
index.  The output format follows the output file name: *.csv is
comma-separated, anything else tab-separated, and a .gz suffix bgzips it.

Sample usage:
depthmate \
    -n normal.bam \
    -t tumor.bam \
    -v calls.vcf.gz \
    -o depth.csv \
    -m 20 -@ 8
*/
package main
