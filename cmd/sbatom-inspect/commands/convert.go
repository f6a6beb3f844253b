package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// ConvertOptions configures the convert command.
type ConvertOptions struct {
	Input  string
	Output string // Empty means stdout
	Topic  string
}

// RunConvert runs the convert command. The direction follows the input
// extension: a .yaml or .yml manifest becomes an Atom entry document,
// a .xml entry document becomes a manifest.
func RunConvert(args []string, stdout, stderr io.Writer) int {
	opts, err := parseConvertArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.Input == "" {
		fmt.Fprintln(stderr, "Error: no input file specified")
		printConvertUsage(stderr)
		return exitCommandError
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	var output []byte
	switch ext := strings.ToLower(filepath.Ext(opts.Input)); ext {
	case ".yaml", ".yml":
		output, err = manifestToEntry(data)
	case ".xml":
		output, err = entryToManifest(data, opts.Topic)
	default:
		err = fmt.Errorf("unsupported input extension %q", ext)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error converting input: %v\n", err)
		return exitCommandError
	}

	if opts.Output == "" || opts.Output == "-" {
		fmt.Fprint(stdout, string(output))
	} else {
		if err := os.WriteFile(opts.Output, output, 0644); err != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintf(stdout, "Converted %s -> %s\n", opts.Input, opts.Output)
	}

	return exitSuccess
}

func manifestToEntry(data []byte) ([]byte, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	d, err := m.toDescription()
	if err != nil {
		return nil, err
	}

	doc, err := subscription.Codec{}.EncodeEntry(d)
	if err != nil {
		return nil, err
	}
	doc.Indent(2)
	return doc.WriteToBytes()
}

func entryToManifest(data []byte, topic string) ([]byte, error) {
	root, err := atom.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	codec := subscription.Codec{Rules: rule.Codec{}}
	d, err := codec.DecodeEntry(root, topic)
	if err != nil {
		return nil, err
	}
	m := manifestFromDescription(d)
	return yaml.Marshal(&m)
}

func parseConvertArgs(args []string) (ConvertOptions, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	opts := ConvertOptions{}

	fs.StringVar(&opts.Output, "o", "", "Output file (default: stdout)")
	fs.StringVar(&opts.Output, "output", "", "Output file")
	fs.StringVar(&opts.Topic, "topic", "", "Topic name used as decode context")

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	remaining := fs.Args()
	if len(remaining) > 0 {
		opts.Input = remaining[0]
	}

	return opts, nil
}

func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: sbatom-inspect convert [options] <input-file>

Options:
  -o, --output   Output file (default: stdout)
  --topic        Topic name used as decode context for XML input

Examples:
  sbatom-inspect convert subscription.yaml -o subscription.xml
  sbatom-inspect convert subscription.yaml > subscription.xml
  sbatom-inspect convert --topic orders dump.xml -o dump.yaml`)
}
