package main

// See doc.go for documentation
import (
	"flag"

	"github.com/JianYang-Lab/depthmate/encoding/bamprovider"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		log.Fatalf("usage: depthmate-index <bam> [bai]")
	}
	bamPath, indexPath := flag.Arg(0), flag.Arg(1)
	if indexPath == "" {
		indexPath = bamprovider.DefaultIndexPath(bamPath)
	}
	if err := bamprovider.WriteIndex(vcontext.Background(), bamPath, indexPath); err != nil {
		log.Fatalf("depthmate-index: %v", err)
	}
	log.Printf("wrote %s", indexPath)
}
