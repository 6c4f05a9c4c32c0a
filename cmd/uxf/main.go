// uxf - UXF format tool
//
// Usage:
//
//	uxf [flags] <infile> [<outfile>]   Check and reformat a UXF file
//	uxf json [--indent N] <infile>     Print a UXF file as JSON
//	uxf version                        Print version info
//
// Input may be plain, gzip or xz compressed; the format is detected from
// the content. Output is compressed according to its suffix (.gz, .xz).
// Use - for stdin or stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Neumenon/uxf/uxf"
	"github.com/Neumenon/uxf/uxfio"
)

const libVersion = "1.0.0"

func init() {
	rootCmd.RunE = runFormat
	flags := rootCmd.Flags()
	flags.BoolVarP(&rootCmd.lint, "lint", "l", false,
		"Check types and report warnings without writing output")
	flags.BoolVarP(&rootCmd.fixTypes, "fixtypes", "f", false,
		"Coerce values to their declared types where possible")
	flags.BoolVarP(&rootCmd.strict, "strict", "s", false,
		"Treat warnings as errors")
	flags.IntVarP(&rootCmd.indent, "indent", "i", 2,
		"Spaces per indentation level (1-8)")
	flags.BoolVar(&rootCmd.trueFalse, "true-false", false,
		"Write bools as true/false instead of yes/no")
	flags.BoolVar(&rootCmd.strictDates, "strict-dates", false,
		"Only accept datetimes of the form YYYY-MM-DDTHH[:MM[:SS]][±HH:MM]")

	jsonCmd.RunE = runJSON
	jsonCmd.Flags().IntVarP(&jsonCmd.indent, "indent", "i", 2,
		"Spaces per indentation level, 0 for compact output")
	rootCmd.AddCommand(&jsonCmd.Command)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = struct {
	cobra.Command
	lint        bool
	fixTypes    bool
	strict      bool
	indent      int
	trueFalse   bool
	strictDates bool
}{
	Command: cobra.Command{
		Use:           "uxf [flags] <infile> [<outfile>]",
		Short:         "Check and reformat UXF files",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
	},
}

var jsonCmd = struct {
	cobra.Command
	indent int
}{
	Command: cobra.Command{
		Use:   "json <infile>",
		Short: "Print a UXF file as JSON",
		Args:  cobra.ExactArgs(1),
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "uxf %s (format %s)\n", libVersion, uxf.VersionText)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal("%v", err)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "uxf: "+format+"\n", args...)
	os.Exit(1)
}

// parseOptions builds the parse options selected by the root flags.
func parseOptions(source string, warnings *int) uxf.ParseOptions {
	opts := uxf.DefaultParseOptions()
	opts.Source = source
	opts.Check = rootCmd.lint
	opts.FixTypes = rootCmd.fixTypes
	opts.WarnIsError = rootCmd.strict
	if rootCmd.strictDates {
		opts.DateTimes = uxf.StrictDateTimes
	}
	opts.OnWarning = func(e *uxf.Error) {
		*warnings++
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}
	return opts
}

func load(path string, opts uxf.ParseOptions) (*uxf.Uxf, error) {
	if path == "-" {
		r, err := uxfio.NewReader(os.Stdin, uxfio.WithParseOptions(opts))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.Load()
	}
	return uxfio.LoadFile(path, opts)
}

func runFormat(cmd *cobra.Command, args []string) error {
	if rootCmd.indent < 1 || rootCmd.indent > 8 {
		return fmt.Errorf("--indent must be between 1 and 8, got %d", rootCmd.indent)
	}
	infile, outfile := args[0], "-"
	if len(args) > 1 {
		outfile = args[1]
	}
	if infile != "-" && samePath(infile, outfile) {
		return fmt.Errorf("won't overwrite %s: use a different output file", infile)
	}

	warnings := 0
	doc, err := load(infile, parseOptions(infile, &warnings))
	if err != nil {
		return err
	}
	if rootCmd.lint {
		if warnings > 0 {
			return fmt.Errorf("%s: %d warning(s)", infile, warnings)
		}
		return nil
	}

	opts := uxf.DefaultEmitOptions()
	opts.Indent = strings.Repeat(" ", rootCmd.indent)
	opts.UseTrueFalse = rootCmd.trueFalse
	opts.OnDiagnostic = func(e *uxf.Error) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	if outfile == "-" {
		return uxf.Dump(cmd.OutOrStdout(), doc, opts)
	}
	return uxfio.DumpFile(outfile, doc, opts)
}

func runJSON(cmd *cobra.Command, args []string) error {
	warnings := 0
	doc, err := load(args[0], parseOptions(args[0], &warnings))
	if err != nil {
		return err
	}
	var data []byte
	if jsonCmd.indent > 0 {
		data, err = uxf.ToJSONIndent(doc.Data, strings.Repeat(" ", jsonCmd.indent))
	} else {
		data, err = uxf.ToJSON(doc.Data)
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}

func samePath(a, b string) bool {
	if b == "-" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
