// Command annokit runs the VCF variant annotation and demultiplexing
// pipeline.
package main

import (
	"os"

	"github.com/annokit/annokit/internal/cli"
)

func main() {
	cli.Execute(os.Args[1:])
}
