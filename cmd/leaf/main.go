// leaf expands the directives of a markup file and prints the result.
//
// Modules are loaded from a leaf-modules attribute on the root element, a
// leading <!-- modules: ... --> comment, and the nearest leaf-modules.yaml
// (or .yml, .jsonc, .json) above the input file. The built-in markdown,
// highlight and assets modules are always available.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
	"github.com/benjaminschreck/go-leaf/pkg/leaf/dom"
	"github.com/benjaminschreck/go-leaf/pkg/leaf/modules"
)

const version = "0.1.0"

// terminalStyle is the chroma style for colored terminal output
const terminalStyle = "monokai"

type options struct {
	format      string
	mode        string
	output      string
	precompress bool
	color       string
	debug       bool
	logLevel    string
	logFormat   string
	noConfig    bool
	version     bool
}

// usageError is reported with the usage text and exit status 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := newFlagSet(&opts)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, flagSet)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr, flagSet)
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "leaf version %s\n", version)
		return 0
	}

	if flagSet.NArg() != 1 {
		printUsage(stderr, flagSet)
		return 2
	}

	if err := render(flagSet.Arg(0), &opts, stdout, stderr); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(stderr, "error: %v\n", err)
			printUsage(stderr, flagSet)
			return 2
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("leaf", pflag.ContinueOnError)
	// errors and usage are printed by run
	flagSet.SetOutput(io.Discard)
	flagSet.Usage = func() {}

	flagSet.StringVar(&opts.format, "format", "", "output format: xml or html (default from LEAF_OUTPUT_FORMAT, else xml)")
	flagSet.StringVar(&opts.mode, "mode", "xml", "input parse mode: xml (strict) or html (lenient)")
	flagSet.StringVarP(&opts.output, "output", "o", "", "write the result to this file instead of stdout")
	flagSet.BoolVar(&opts.precompress, "precompress", false, "also write .gz and .zst copies of --output")
	flagSet.StringVar(&opts.color, "color", "auto", "highlight output: auto, always or never")
	flagSet.BoolVar(&opts.debug, "debug", false, "add leaf-directive attributes naming the directives applied")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error or off")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	flagSet.BoolVar(&opts.noConfig, "no-config", false, "do not search for leaf-modules config files")
	flagSet.BoolVar(&opts.version, "version", false, "print the version and exit")
	return flagSet
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: leaf [flags] <path>\n\nFlags:\n%s", flagSet.FlagUsages())
}

func render(path string, opts *options, stdout, stderr io.Writer) error {
	config := leaf.ConfigFromEnvironment()
	if opts.logLevel != "" {
		config.LogLevel = strings.ToLower(opts.logLevel)
	}
	if opts.format != "" {
		config.OutputFormat = strings.ToLower(opts.format)
	}
	if opts.debug {
		config.Debug = true
	}
	if err := config.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}

	mode, err := dom.ParseMode(opts.mode)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	switch opts.color {
	case "auto", "always", "never":
	default:
		return &usageError{msg: "invalid color mode: " + opts.color}
	}
	if opts.precompress && opts.output == "" {
		return &usageError{msg: "--precompress requires --output"}
	}

	logger, err := newLogger(opts.logFormat, config.LogLevel, stderr)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	leaf.SetLogger(logger)

	registry := leaf.DefaultRegistry()
	if err := modules.Register(registry); err != nil {
		return err
	}

	engine := leaf.NewWithConfig(config)
	leaf.WithRegistry(registry)(engine)
	leaf.WithLogger(logger)(engine)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	out, err := engine.ParseFile(absPath, &leaf.Options{
		Mode:              mode,
		SkipModulesConfig: opts.noConfig,
	})
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
			return err
		}
		logger.WithField("path", opts.output).Debug("Wrote output")
		if opts.precompress {
			return writeCompressed(opts.output, []byte(out), logger)
		}
		return nil
	}

	if useColor(opts.color, stdout) {
		return quick.Highlight(stdout, out+"\n", config.OutputFormat, "terminal256", terminalStyle)
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

func newLogger(format, level string, w io.Writer) (*leaf.Logger, error) {
	l := leaf.ParseLogLevel(level)
	switch format {
	case "", "text":
		return leaf.NewLogger(w, l), nil
	case "json":
		return leaf.NewJSONLogger(w, l), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
