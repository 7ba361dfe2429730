package main

import (
	"flag"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/fnstack/checkpoint"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one checkpoint file")
	}

	//nolint:gosec // G304: File path comes from user input, which is expected for inspection
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	dict, err := checkpoint.Read(f)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(dict)) {
		t := dict[name]
		var sumSq float64
		for _, v := range t.Data() {
			sumSq += float64(v) * float64(v)
		}
		fmt.Printf("%-20s %-10v batch %d  l2 %.4f\n", name, t.Shape(), t.BatchCount(), math.Sqrt(sumSq))
	}
	return nil
}
