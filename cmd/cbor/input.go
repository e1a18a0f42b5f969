package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"

	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

// readInput reads the file named by the last element of args, if it names
// a regular file, or stdin otherwise. Any other argument is an error.
//
// In hex mode whitespace is stripped and the hex is decoded to binary.
func readInput(args []string, hexMode bool, stdin io.Reader) ([]byte, error) {
	var data []byte
	remainingArgs := args

	if length := len(args); length > 0 {
		candidate := args[length-1]
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			data, err = os.ReadFile(candidate)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", candidate, err)
			}
			remainingArgs = args[:length-1]
		}
	}

	if len(remainingArgs) > 0 {
		return nil, fmt.Errorf("unexpected argument %q: %w", remainingArgs[0], xerr.InvalidInput)
	}
	if data == nil {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	if hexMode {
		decoded, err := decodeHexInput(data)
		if err != nil {
			return nil, err
		}
		data = decoded
	}
	return data, nil
}

// decodeHexInput strips whitespace and decodes hex. Whitespace between
// digit pairs is allowed, as in "a1 63 6b 65 79".
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex: %w", xerr.InvalidInput)
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// writeOutput writes raw bytes, or lowercase hex and a newline.
func writeOutput(w io.Writer, data []byte, hexMode bool) error {
	if !hexMode {
		_, err := w.Write(data)
		return err
	}
	_, err := fmt.Fprintln(w, hex.EncodeToString(data))
	return err
}

// decodeValues decodes one value, or with seq every value of a sequence.
func decodeValues(data []byte, seq bool) ([]cbor.Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", xerr.InvalidInput)
	}
	if !seq {
		v, err := cbor.Decode(data)
		if err != nil {
			return nil, err
		}
		return []cbor.Value{v}, nil
	}
	dec := cbor.NewDecoder(data)
	var values []cbor.Value
	for dec.More() {
		v, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", len(values), err)
		}
		values = append(values, v)
	}
	return values, nil
}
