package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/annotate"
)

// AnnotateCmd finds timestamps in text, files or stdin
var AnnotateCmd = &cobra.Command{
	Use:   "annotate [text...]",
	Short: "Find and resolve timestamps in text",
	Long: `Find timestamps in free text and resolve each to an instant.

Text comes from the arguments, from one or more --file flags, or from stdin
when neither is given. Files are annotated concurrently, each with its own
session.

Examples:
  stamp annotate "see you at 13:30 on 21/03"
  stamp annotate --carets -p F "standup at 9:15am on 21/03"
  stamp annotate --file notes.md --file todo.txt --format json
  pbpaste | stamp annotate --format markup -p t`,
	RunE: runAnnotate,
}

var annotateFiles []string

func init() {
	addRenderFlags(AnnotateCmd, display.DocumentFormats())
	AnnotateCmd.Flags().StringArrayVarP(&annotateFiles, "file", "f", nil, "File to annotate (repeatable)")
}

// input is one text to annotate and where it came from
type input struct {
	name string
	text string
}

// FileDocument is the structured output for one of several inputs
type FileDocument struct {
	File             string `json:"file" yaml:"file"`
	display.Document `yaml:",inline"`
}

func readInputs(cmd *cobra.Command, args []string) ([]input, error) {
	if len(args) > 0 && len(annotateFiles) > 0 {
		return nil, errors.NewInvalidRequestError("pass text arguments or --file, not both")
	}
	if len(args) > 0 {
		return []input{{name: "args", text: strings.Join(args, " ")}}, nil
	}
	if len(annotateFiles) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		return []input{{name: "stdin", text: string(data)}}, nil
	}

	inputs := make([]input, len(annotateFiles))
	for i, path := range annotateFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		inputs[i] = input{name: path, text: string(data)}
	}
	return inputs, nil
}

// annotateAll runs one session per input, concurrently. Results keep input
// order.
func annotateAll(e *annotate.Engine, inputs []input) []*annotate.AnnotatedText {
	results := make([]*annotate.AnnotatedText, len(inputs))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = e.NewSession().Annotate(in.text)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	format, err := display.FormatFromCommand(cmd, display.DocumentFormats()...)
	if err != nil {
		return err
	}
	cfg, e, err := loadEngine()
	if err != nil {
		return err
	}
	opts, err := renderOptions(cmd, cfg)
	if err != nil {
		return err
	}
	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	results := annotateAll(e, inputs)

	v := verbosity(cmd)
	if logger.ShouldOutput(v, logger.OutputProgress) {
		for i, in := range inputs {
			logger.Infow("Annotated",
				logger.FieldFile, in.name,
				logger.FieldCount, len(results[i].Spans()),
				"size", humanize.Bytes(uint64(len(in.text))))
		}
	}
	if logger.ShouldOutput(v, logger.OutputDiagnostics) {
		for i, in := range inputs {
			for _, d := range results[i].Diagnostics {
				logger.Debugw("Diagnostic", logger.FieldFile, in.name, "kind", d.Kind, "message", d.Message)
			}
		}
	}

	out := cmd.OutOrStdout()
	if len(inputs) == 1 {
		return display.Render(out, results[0], format, opts)
	}

	if format == display.FormatJSON || format == display.FormatYAML {
		docs := make([]FileDocument, len(inputs))
		for i, in := range inputs {
			doc, err := display.NewDocument(results[i], opts)
			if err != nil {
				return err
			}
			docs[i] = FileDocument{File: in.name, Document: *doc}
		}
		return display.Encode(out, docs, format, "")
	}

	for i, in := range inputs {
		var buf bytes.Buffer
		if err := display.Render(&buf, results[i], format, opts); err != nil {
			return errors.Wrapf(err, "failed to render %s", in.name)
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "==> %s <==\n", in.name)
		if _, err := buf.WriteTo(out); err != nil {
			return err
		}
	}
	return nil
}
