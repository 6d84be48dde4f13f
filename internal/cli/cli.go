package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/torchrun-prelaunch/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("torchrun-prelaunch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
torchrun-prelaunch - Prepares rank and rendezvous environments for torchrun workers.

Usage:
  torchrun-prelaunch [options] LAYOUT_PATH...

Arguments:
  LAYOUT_PATH
    Path to a single .hcl layout file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	nodeFlag := flagSet.String("node", "", "Node to prepare, by hostname or index. Empty prepares every node.")
	envFileFlag := flagSet.String("env-file", "", "Dotenv file used as the base task environment instead of the process environment.")
	outDirFlag := flagSet.String("out-dir", "", "Directory receiving one <host>.<local_rank>.env file per task. Empty prints to stdout.")
	controlPortFlag := flagSet.Int("control-port", 0, "Control daemon port on the rank 0 node. 0 uses the layout value or 6818.")
	dialTimeoutFlag := flagSet.Duration("dial-timeout", 5*time.Second, "Timeout of the connection to the rank 0 node.")
	dnsServerFlag := flagSet.String("dns-server", "", "Resolve node hostnames through this nameserver (host:port).")
	introspectFlag := flagSet.String("introspect", "peer", "Side of the control daemon connection reported as rendezvous. Options: 'peer' (rank 0's control address, same on every node) or 'local' (requires preparing all nodes in one run).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No layout path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		LayoutPaths: flagSet.Args(),
		Node:        *nodeFlag,
		EnvFile:     *envFileFlag,
		OutDir:      *outDirFlag,
		ControlPort: *controlPortFlag,
		DialTimeout: *dialTimeoutFlag,
		DNSServer:   *dnsServerFlag,
		Introspect:  strings.ToLower(*introspectFlag),
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
