// Command cbor converts between CBOR and JSON or YAML and inspects
// encoded data.
//
//	cbor [--log-level LEVEL] [--log-json] <command> [flags] [file]
//
// Commands read a file named by the last argument, or stdin.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"sutext.github.io/cbor/xlog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// env is what a command may touch.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	logger *xlog.Logger
}

type command struct {
	name    string
	summary string
	usage   string
	flags   *pflag.FlagSet
	run     func(e *env, args []string) error
}

func commands() []*command {
	return []*command{
		encodeCommand(),
		decodeCommand(),
		diagCommand(),
		validateCommand(),
	}
}

// run executes one command line and returns the exit status: 0 on
// success, 1 when the command fails and 2 on usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("cbor", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	logLevel := global.String("log-level", "warn", "log level: debug, info, warn or error")
	logJSON := global.Bool("log-json", false, "write logs as JSON")
	cmds := commands()
	global.Usage = func() {
		fmt.Fprintln(stderr, "usage: cbor [global flags] <command> [flags] [file]")
		fmt.Fprintln(stderr, "\ncommands:")
		for _, c := range cmds {
			fmt.Fprintf(stderr, "  %-10s %s\n", c.name, c.summary)
		}
		fmt.Fprintln(stderr, "\nglobal flags:")
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	level, err := xlog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger := xlog.New(stderr, level, *logJSON)
	xlog.SetDefault(logger)

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}
	var cmd *command
	for _, c := range cmds {
		if c.name == rest[0] {
			cmd = c
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "cbor: unknown command %q\n", rest[0])
		global.Usage()
		return 2
	}
	cmd.flags.SetOutput(stderr)
	cmd.flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s\n\n%s\n\nflags:\n", cmd.usage, cmd.summary)
		cmd.flags.PrintDefaults()
	}
	if err := cmd.flags.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	e := &env{stdin: stdin, stdout: stdout, logger: logger.With("command", cmd.name)}
	if err := cmd.run(e, cmd.flags.Args()); err != nil {
		e.logger.Error("command failed", xlog.Err(err))
		return 1
	}
	return 0
}
