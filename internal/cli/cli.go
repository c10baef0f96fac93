package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/metabuild/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("metabuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
metabuild - resolves a tree of BUILD.hcl files into a build graph.

Usage:
  metabuild [options] [ROOT_DIR]

Arguments:
  ROOT_DIR
    Path to the source root containing the top-level BUILD.hcl.

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("root", "", "Path to the source root.")
	secondaryFlag := flagSet.String("secondary-root", "", "Fallback source root for files absent under the primary one.")
	rootFileFlag := flagSet.String("root-file", "", "Source-absolute build file that starts the run (default //BUILD.hcl).")
	rootLabelsFlag := flagSet.String("root-labels", "", "Comma-separated labels always marked for generation.")
	toolchainFlag := flagSet.String("default-toolchain", "", "Label of the default toolchain.")
	workersFlag := flagSet.Int("workers", 0, "Number of parse workers. 0 means one per CPU.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' (default) or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info' (default), 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	root := *rootFlag
	if root == "" && flagSet.NArg() > 0 {
		root = flagSet.Arg(0)
	}
	if root == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	// Empty means unset here: the settings file and built-in defaults fill
	// these in during config construction.
	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "" && logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var rootLabels []string
	if *rootLabelsFlag != "" {
		for _, l := range strings.Split(*rootLabelsFlag, ",") {
			if l = strings.TrimSpace(l); l != "" {
				rootLabels = append(rootLabels, l)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		RootDir:          root,
		SecondaryRootDir: *secondaryFlag,
		RootFile:         *rootFileFlag,
		RootLabels:       rootLabels,
		DefaultToolchain: *toolchainFlag,
		Workers:          *workersFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
