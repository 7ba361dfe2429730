// Package main provides the fnstack CLI.
//
// Commands:
//
//	fnstack version
//	fnstack train   [-epochs N] [-lr F] [-optimizer sgd|momentum|adam] [-accelerated] [-out FILE]
//	fnstack inspect FILE
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		fmt.Printf("fnstack %s\n", version)
	case "train":
		err = runTrain(args)
	case "inspect":
		err = runInspect(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fnstack %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("fnstack - layer-graph training engine")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  train      Train a small classifier on synthetic data")
	fmt.Println("  inspect    List the tensors of a checkpoint")
	fmt.Println("")
	fmt.Println("klog flags (e.g. -v=4) are accepted after the command.")
}

// parseFlags parses a command's flag set with the klog flags attached.
func parseFlags(fs *flag.FlagSet, args []string) error {
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		fs.Var(f.Value, f.Name, f.Usage)
	})
	return fs.Parse(args)
}
