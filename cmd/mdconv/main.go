// Command mdconv is a thin wrapper around the mdconv library: it parses
// flags into a mdconv.ConversionOptions, reads HTML from a file argument
// or stdin, and writes the resulting Markdown to stdout.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aurorahtml/mdconv"
)

const version = "0.1.0"

// exit codes per the fixed CLI contract: 0 success, 1 conversion
// error, 2 invalid arguments.
const (
	exitOK       = 0
	exitConvert  = 1
	exitBadUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		flagHeadingStyle    string
		flagBullets         string
		flagListIndentWidth int
		flagListIndentType  string
		flagCodeBlockStyle  string
		flagCodeLanguage    string
		flagNewlineStyle    string
		flagAutolinks       bool
		flagHighlightStyle  string
		flagSubSymbol       string
		flagSupSymbol       string
		flagBrInTables      bool
		flagWrap            bool
		flagWrapWidth       int
		flagStripNewlines   bool
		flagConvertInline   bool
		flagEncoding        string
		flagMetadata        bool
		flagPresetName      string
	)

	root := &cobra.Command{
		Use:           "mdconv [file]",
		Short:         "Convert HTML to CommonMark Markdown",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := mdconv.DefaultOptions()
			opts.HeadingStyle = mdconv.HeadingStyle(flagHeadingStyle)
			opts.Bullets = flagBullets
			opts.ListIndentWidth = flagListIndentWidth
			opts.ListIndentType = mdconv.ListIndentType(flagListIndentType)
			opts.CodeBlockStyle = mdconv.CodeBlockStyle(flagCodeBlockStyle)
			opts.CodeLanguage = flagCodeLanguage
			opts.NewlineStyle = mdconv.NewlineStyle(flagNewlineStyle)
			opts.Autolinks = flagAutolinks
			opts.HighlightStyle = mdconv.HighlightStyle(flagHighlightStyle)
			opts.SubSymbol = flagSubSymbol
			opts.SupSymbol = flagSupSymbol
			opts.BrInTables = flagBrInTables
			opts.Wrap = flagWrap
			opts.WrapWidth = flagWrapWidth
			opts.StripNewlines = flagStripNewlines
			opts.ConvertAsInline = flagConvertInline
			opts.Encoding = flagEncoding
			if flagPresetName != "" {
				opts.Preprocessing.Preset = mdconv.PreprocessingPreset(flagPresetName)
			}

			if err := opts.Validate(); err != nil {
				return usageError{err}
			}

			input, err := readInput(args)
			if err != nil {
				return usageError{err}
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			if flagMetadata {
				d := &mdconv.Driver{Logger: logger}
				out, meta, err := d.ConvertWithMetadata(string(input), opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				printMetadata(cmd.ErrOrStderr(), meta)
				return nil
			}

			out, err := mdconv.Convert(string(input), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&flagHeadingStyle, "heading-style", string(mdconv.HeadingATX), "heading style: atx, atx_closed, underlined")
	flags.StringVar(&flagBullets, "bullets", "*+-", "bullet characters cycled by nesting depth")
	flags.IntVar(&flagListIndentWidth, "list-indent-width", 2, "spaces per list continuation indent level")
	flags.StringVar(&flagListIndentType, "list-indent-type", string(mdconv.IndentSpaces), "list indent character: spaces, tabs")
	flags.StringVar(&flagCodeBlockStyle, "code-block-style", string(mdconv.CodeIndented), "code block style: indented, backticks, tildes")
	flags.StringVar(&flagCodeLanguage, "code-language", "", "language tag for fenced code blocks whose <pre>/<code> class names none")
	flags.StringVar(&flagNewlineStyle, "newline-style", string(mdconv.NewlineSpaces), "<br> rendering: spaces, backslash")
	flags.BoolVar(&flagAutolinks, "autolinks", false, "render bare-URL anchors as autolinks")
	flags.StringVar(&flagHighlightStyle, "highlight-style", string(mdconv.HighlightDoubleEqual), "<mark> rendering: double_equal, html, bold, none")
	flags.StringVar(&flagSubSymbol, "sub-symbol", "", "wrapper symbol for <sub>")
	flags.StringVar(&flagSupSymbol, "sup-symbol", "", "wrapper symbol for <sup>")
	flags.BoolVar(&flagBrInTables, "br-in-tables", true, "turn line breaks in table cell content into <br> (false: spaces); <br> elements in cells always render as <br>")
	flags.BoolVar(&flagWrap, "wrap", false, "set the Wrap option (validated together with --wrap-width; output is not wrapped)")
	flags.IntVar(&flagWrapWidth, "wrap-width", 80, "wrap width, must be >= 1 when --wrap is set (output is not wrapped)")
	flags.BoolVar(&flagStripNewlines, "strip-newlines", false, "set the StripNewlines option (the converter does not read it)")
	flags.BoolVar(&flagConvertInline, "convert-as-inline", false, "convert the whole document as an inline fragment")
	flags.StringVar(&flagEncoding, "encoding", "", "source byte encoding hint, e.g. windows-1252")
	flags.StringVar(&flagPresetName, "preprocessing-preset", "", "sanitizer allow-list preset: minimal, standard, aggressive")
	flags.BoolVar(&flagMetadata, "metadata", false, "print collected document metadata to stderr after the Markdown")

	root.SetVersionTemplate("mdconv {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	if err := root.Execute(); err != nil {
		return reportAndExitCode(root, err)
	}
	return exitOK
}

// usageError marks an error as an argument/option problem rather than a
// conversion failure, so reportAndExitCode can pick exit code 2.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func reportAndExitCode(cmd *cobra.Command, err error) int {
	var bold string
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bold = "\x1b[1m"
	}
	reset := ""
	if bold != "" {
		reset = "\x1b[0m"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%smdconv:%s %s\n", bold, reset, err)

	var ue usageError
	if ok := asUsageError(err, &ue); ok {
		return exitBadUsage
	}
	return exitConvert
}

func asUsageError(err error, target *usageError) bool {
	for err != nil {
		if ue, ok := err.(usageError); ok {
			*target = ue
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func printMetadata(w io.Writer, m mdconv.Metadata) {
	fmt.Fprintln(w, "---")
	if m.Document.Title != "" {
		fmt.Fprintf(w, "title: %s\n", m.Document.Title)
	}
	if m.Document.Description != "" {
		fmt.Fprintf(w, "description: %s\n", m.Document.Description)
	}
	if len(m.Document.Keywords) > 0 {
		fmt.Fprintf(w, "keywords: %s\n", strings.Join(m.Document.Keywords, ", "))
	}
	fmt.Fprintf(w, "headings: %d, links: %d, images: %d\n", len(m.Headers), len(m.Links), len(m.Images))
}
