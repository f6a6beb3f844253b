package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// ShowOptions configures the show command.
type ShowOptions struct {
	Format string // text, json, yaml
	Topic  string
	File   string
}

// ShowOutput represents the decoded document for display.
type ShowOutput struct {
	File          string     `json:"file" yaml:"file"`
	Kind          string     `json:"kind" yaml:"kind"`
	Subscriptions []manifest `json:"subscriptions" yaml:"subscriptions"`
}

// RunShow runs the show command.
func RunShow(args []string, stdout, stderr io.Writer) int {
	opts, err := parseShowArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no file specified")
		printShowUsage(stderr)
		return exitCommandError
	}

	output, err := buildShowOutput(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	switch opts.Format {
	case "json":
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(data))
	case "yaml":
		data, _ := yaml.Marshal(output)
		fmt.Fprint(stdout, string(data))
	default:
		printShowText(stdout, output)
	}

	return exitSuccess
}

func buildShowOutput(opts ShowOptions) (*ShowOutput, error) {
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return nil, err
	}
	root, err := atom.ParseDocument(data)
	if err != nil {
		return nil, err
	}

	codec := subscription.Codec{Rules: rule.Codec{}}
	output := &ShowOutput{File: opts.File}

	switch root.Tag {
	case "feed":
		output.Kind = "feed"
		descriptions, err := codec.DecodeFeed(root, opts.Topic)
		if err != nil {
			return nil, err
		}
		for _, d := range descriptions {
			output.Subscriptions = append(output.Subscriptions, manifestFromDescription(d))
		}
	default:
		output.Kind = "entry"
		d, err := codec.DecodeEntry(root, opts.Topic)
		if err != nil {
			return nil, err
		}
		output.Subscriptions = []manifest{manifestFromDescription(d)}
	}
	return output, nil
}

func printShowText(w io.Writer, output *ShowOutput) {
	fmt.Fprintf(w, "File: %s\n", output.File)
	fmt.Fprintf(w, "Kind: %s\n", output.Kind)

	for _, m := range output.Subscriptions {
		fmt.Fprintf(w, "\nSubscription: %s\n", m.Name)
		if m.Topic != "" {
			fmt.Fprintf(w, "  Topic:                  %s\n", m.Topic)
		}
		fmt.Fprintf(w, "  Status:                 %s\n", m.Status)
		fmt.Fprintf(w, "  Lock duration:          %s\n", m.LockDuration)
		fmt.Fprintf(w, "  Requires session:       %t\n", *m.RequiresSession)
		fmt.Fprintf(w, "  Max delivery count:     %d\n", *m.MaxDeliveryCount)
		fmt.Fprintf(w, "  Batched operations:     %t\n", *m.EnableBatchedOperations)
		fmt.Fprintf(w, "  DLQ on expiration:      %t\n", *m.DeadLetteringOnMessageExpiration)
		fmt.Fprintf(w, "  DLQ on filter errors:   %t\n", *m.DeadLetteringOnFilterEvaluationExceptions)
		fmt.Fprintf(w, "  Message time to live:   %s\n", orUnbounded(m.DefaultMessageTimeToLive))
		fmt.Fprintf(w, "  Auto delete on idle:    %s\n", orUnbounded(m.AutoDeleteOnIdle))
		if m.ForwardTo != "" {
			fmt.Fprintf(w, "  Forward to:             %s\n", m.ForwardTo)
		}
		if m.ForwardDeadLetteredMessagesTo != "" {
			fmt.Fprintf(w, "  Forward dead letters:   %s\n", m.ForwardDeadLetteredMessagesTo)
		}
		if m.UserMetadata != "" {
			fmt.Fprintf(w, "  User metadata:          %s\n", m.UserMetadata)
		}
		if m.DefaultRule != nil {
			fmt.Fprintf(w, "  Default rule:           %s\n", ruleSummary(m.DefaultRule))
		}
	}
}

func orUnbounded(s string) string {
	if s == "" {
		return "unbounded"
	}
	return s
}

func ruleSummary(r *ruleManifest) string {
	expr := r.SQLExpression
	if expr == "" {
		expr = "1=1"
	}
	summary := expr
	if r.Name != "" {
		summary = fmt.Sprintf("%s (%s)", expr, r.Name)
	}
	if r.Action != "" {
		summary += " action: " + r.Action
	}
	return summary
}

func parseShowArgs(args []string) (ShowOptions, error) {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	opts := ShowOptions{}

	fs.StringVar(&opts.Format, "format", "text", "Output format: text, json, yaml")
	fs.StringVar(&opts.Topic, "topic", "", "Topic name used as decode context")

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	remaining := fs.Args()
	if len(remaining) > 0 {
		opts.File = remaining[0]
	}

	return opts, nil
}

func printShowUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: sbatom-inspect show [options] <file>

Options:
  --format   Output format: text, json, yaml [default: text]
  --topic    Topic name used as decode context

Examples:
  sbatom-inspect show subscription.xml
  sbatom-inspect show --format yaml --topic orders dump.xml`)
}
