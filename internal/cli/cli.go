package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/ctybind/internal/app"
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
// Values from the --config file apply wherever no flag was given.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ctybind", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ctybind - Run HCL scripts against Go types bound into cty.

Usage:
  ctybind [options] [SCRIPT_PATH]

Arguments:
  SCRIPT_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	scriptFlag := flagSet.String("script", "", "Path to the script file or directory.")
	sFlag := flagSet.String("s", "", "Path to the script file or directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a YAML config file.")
	shelfFlag := flagSet.String("shelf", "", "SQLite file backing the shelve_* functions, or ':memory:'.")
	pickleFlag := flagSet.String("pickle-format", "", "Default pickle format. Options: 'json', 'msgpack' or 'yaml'.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text', 'json' or 'auto'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *scriptFlag != "" {
		path = *scriptFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	flags := app.Config{
		ScriptPath:   path,
		ShelfPath:    *shelfFlag,
		PickleFormat: *pickleFlag,
		LogFormat:    *logFormatFlag,
		LogLevel:     *logLevelFlag,
	}

	base := app.Config{}
	if *configFlag != "" {
		fileCfg, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		base = fileCfg
		slog.Debug("Config file loaded.", "path", *configFlag)
	}
	merged := flags.Over(base)
	slog.Debug("Script path determined.", "path", merged.ScriptPath)

	if merged.ScriptPath == "" {
		slog.Debug("No script path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(merged)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
