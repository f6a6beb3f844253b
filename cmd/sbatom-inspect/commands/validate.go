package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	Topic string
	JSON  bool
	Files []string
}

// ValidationOutput represents the validation result for a document.
type ValidationOutput struct {
	Valid         bool     `json:"valid"`
	Kind          string   `json:"kind,omitempty"`
	Subscriptions []string `json:"subscriptions,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// RunValidate runs the validate command.
func RunValidate(args []string, stdout, stderr io.Writer) int {
	opts, err := parseValidateArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: no files specified")
		printValidateUsage(stderr)
		return exitCommandError
	}

	codec := subscription.Codec{Rules: rule.Codec{}}

	hasErrors := false
	results := make(map[string]*ValidationOutput)

	for _, file := range opts.Files {
		result := validateFile(file, codec, opts.Topic)
		results[file] = result

		if !result.Valid {
			hasErrors = true
		}

		if !opts.JSON {
			printValidationResult(stdout, file, result)
		}
	}

	if opts.JSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(stdout, string(output))
	}

	if hasErrors {
		return exitValidation
	}
	return exitSuccess
}

func validateFile(path string, codec subscription.Codec, topic string) *ValidationOutput {
	output := &ValidationOutput{}

	data, err := os.ReadFile(path)
	if err != nil {
		output.Error = err.Error()
		return output
	}
	root, err := atom.ParseDocument(data)
	if err != nil {
		output.Error = err.Error()
		return output
	}

	switch root.Tag {
	case "feed":
		output.Kind = "feed"
		descriptions, err := codec.DecodeFeed(root, topic)
		if err != nil {
			output.Error = err.Error()
			return output
		}
		for _, d := range descriptions {
			output.Subscriptions = append(output.Subscriptions, d.Name)
		}
	default:
		output.Kind = "entry"
		d, err := codec.DecodeEntry(root, topic)
		if err != nil {
			output.Error = err.Error()
			return output
		}
		output.Subscriptions = []string{d.Name}
	}

	output.Valid = true
	return output
}

func printValidationResult(w io.Writer, file string, result *ValidationOutput) {
	if !result.Valid {
		fmt.Fprintf(w, "%s: FAILED\n  ERROR %s\n", file, result.Error)
		return
	}
	if result.Kind == "feed" {
		fmt.Fprintf(w, "%s: OK (feed with %d subscriptions)\n", file, len(result.Subscriptions))
		return
	}
	fmt.Fprintf(w, "%s: OK (subscription %q)\n", file, result.Subscriptions[0])
}

func parseValidateArgs(args []string) (ValidateOptions, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	opts := ValidateOptions{}

	fs.StringVar(&opts.Topic, "topic", "", "Topic name used as decode context")
	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.Files = fs.Args()
	return opts, nil
}

func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: sbatom-inspect validate [options] <files...>

Options:
  --topic    Topic name used as decode context
  --json     Output results as JSON

Examples:
  sbatom-inspect validate dump.xml
  sbatom-inspect validate --topic orders --json *.xml`)
}
