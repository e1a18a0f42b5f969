package main

import (
	"fmt"
	"io"

	fxcbor "github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
)

func diagCommand() *command {
	flags := pflag.NewFlagSet("diag", pflag.ContinueOnError)
	hexIn := flags.BoolP("hex", "x", false, "read hex instead of binary")
	return &command{
		name:    "diag",
		summary: "Print RFC 8949 diagnostic notation, one line per item",
		usage:   "cbor diag [-x] [file]",
		flags:   flags,
		run: func(e *env, args []string) error {
			data, err := readInput(args, *hexIn, e.stdin)
			if err != nil {
				return err
			}
			return diagCBOR(data, e.stdout)
		},
	}
}

// diagCBOR writes the diagnostic notation of every item in data, which
// may be a sequence.
func diagCBOR(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}
	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := fxcbor.DiagnoseFirst(remaining)
		if err != nil {
			offset := len(data) - len(remaining)
			return fmt.Errorf("diagnose CBOR at byte %d: %w", offset, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}
	return nil
}
