/*Command depthmate-index reads a coordinate-sorted .bam file and writes a
  .bai index next to it, or to the path given as the second argument.

  Usage: depthmate-index foo.bam [foo.bam.bai]
*/
package main
