package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xlog"
)

var errNotCanonical = errors.New("not canonical")

func validateCommand() *command {
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	seq := flags.BoolP("seq", "s", false, "validate every item of a CBOR sequence")
	hexIn := flags.BoolP("hex", "x", false, "read hex instead of binary")
	return &command{
		name:    "validate",
		summary: "Check that CBOR is well formed and in canonical form",
		usage:   "cbor validate [-s] [-x] [file]",
		flags:   flags,
		run: func(e *env, args []string) error {
			data, err := readInput(args, *hexIn, e.stdin)
			if err != nil {
				return err
			}
			values, err := decodeValues(data, *seq)
			if err != nil {
				return err
			}
			enc := cbor.NewEncoder(cbor.WithBufferSize(len(data)))
			for _, v := range values {
				enc.Add(v)
			}
			if offset := firstDifference(data, enc.Bytes()); offset >= 0 {
				e.logger.Debug("re-encoding differs", xlog.Offset(offset), xlog.Size(enc.Len()))
				fmt.Fprintf(e.stdout, "not canonical: first difference at offset %d\n", offset)
				return fmt.Errorf("offset %d: %w", offset, errNotCanonical)
			}
			_, err = fmt.Fprintln(e.stdout, "canonical")
			return err
		},
	}
}

// firstDifference returns the first offset where a and b differ, or -1.
func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
