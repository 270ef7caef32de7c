// Command imgdiff prints the sum of squared R, G and B differences between
// two images of identical size.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nvr-ai/go-convolution/images"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "usage: imgdiff <a.png> <b.png>")
		return 1
	}

	a, err := images.Decode(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 3
	}
	b, err := images.Decode(args[1])
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 3
	}

	diff, err := images.SquaredDifference(a, b)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 5
	}
	fmt.Fprintln(stdout, diff)
	return 0
}
