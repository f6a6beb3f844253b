// sbatom-inspect is a CLI tool for validating, displaying, and
// converting subscription entity documents.
package main

import (
	"fmt"
	"os"

	"github.com/sbatom/sbatom-go/cmd/sbatom-inspect/commands"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "validate":
		exitCode = commands.RunValidate(args, os.Stdout, os.Stderr)
	case "show":
		exitCode = commands.RunShow(args, os.Stdout, os.Stderr)
	case "convert":
		exitCode = commands.RunConvert(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "-v", "--version":
		fmt.Println("sbatom-inspect version 0.1.0")
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`sbatom-inspect - subscription entity inspection and conversion tool

Usage:
  sbatom-inspect <command> [options] [files...]

Commands:
  validate   Validate entry and feed documents
  show       Display decoded subscription descriptions
  convert    Convert between manifest YAML and entry XML

Options:
  -h, --help     Show this help message
  -v, --version  Show version information

Examples:
  sbatom-inspect validate dump.xml
  sbatom-inspect show --format yaml subscription.xml
  sbatom-inspect convert subscription.yaml -o subscription.xml

For command-specific help, run:
  sbatom-inspect <command> --help`)
}
