// Command packer builds a self-extracting executable by gluing a
// catalog launcher stub to a compressed guest payload (spec.md section
// 6, "Packer CLI").
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/xsfx/xsfx/internal/catalog"
	"github.com/xsfx/xsfx/internal/packer"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	c, err := catalog.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "packer: loading catalog: %v\n", err)
		return 1
	}

	if len(args) < 3 || len(args) > 5 {
		printUsage(args[0], c)
		return 1
	}

	guestPath := args[1]
	outputPath := args[2]

	var target string
	if len(args) > 3 {
		if len(args) == 5 && args[3] == "--target" {
			target = args[4]
		} else {
			fmt.Fprintf(os.Stderr, "Unknown arguments. Usage: %s <input_payload> <output_sfx> [--target <triple>]\n", args[0])
			fmt.Fprint(os.Stderr, packer.ListTargets(c))
			return 1
		}
	}

	opts := packer.Options{GuestPath: guestPath, OutputPath: outputPath, Target: target}
	resolvedTarget := packer.ResolveTarget(target, c)

	if err := packer.Run(opts, c); err != nil {
		var unknown *catalog.ErrUnknownTarget
		if errors.As(err, &unknown) {
			fmt.Fprintf(os.Stderr, "Requested target %q not available in this build.\n", unknown.Target)
			fmt.Fprint(os.Stderr, packer.ListTargets(c))
			return 2
		}
		fmt.Fprintf(os.Stderr, "packer: %v\n", err)
		return 1
	}

	fmt.Printf("Created SFX: %s (target: %s)\n", outputPath, resolvedTarget)
	return 0
}

func printUsage(argv0 string, c *catalog.Catalog) {
	fmt.Fprintf(os.Stderr, "Usage: %s <input_payload> <output_sfx> [--target <triple>]\n", argv0)
	fmt.Fprint(os.Stderr, packer.ListTargets(c))
}
