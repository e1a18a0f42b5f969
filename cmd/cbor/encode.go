package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
	"sutext.github.io/cbor/xlog"
)

func encodeCommand() *command {
	flags := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	format := flags.StringP("format", "f", "auto", "input format: auto, json or yaml")
	hexOut := flags.BoolP("hex", "x", false, "write hex instead of binary")
	seq := flags.BoolP("seq", "s", false, "encode every YAML document, writing a CBOR sequence")
	return &command{
		name:    "encode",
		summary: "Convert JSON or YAML to CBOR",
		usage:   "cbor encode [-f auto|json|yaml] [-x] [-s] [file]",
		flags:   flags,
		run: func(e *env, args []string) error {
			data, err := readInput(args, false, e.stdin)
			if err != nil {
				return err
			}
			values, err := parseDocuments(data, *format)
			if err != nil {
				return err
			}
			if !*seq && len(values) != 1 {
				return fmt.Errorf("input holds %d documents, use --seq: %w", len(values), xerr.InvalidInput)
			}
			enc := cbor.NewEncoder()
			for _, v := range values {
				enc.Add(v)
			}
			out := enc.Bytes()
			e.logger.Debug("encoded", xlog.Format(*format), xlog.Int("values", len(values)), xlog.Size(len(out)))
			return writeOutput(e.stdout, out, *hexOut)
		},
	}
}

// parseDocuments reads every document of a JSON or YAML input. JSON is
// read as YAML after comments and trailing commas are stripped, so map
// order is kept in both formats.
func parseDocuments(data []byte, format string) ([]cbor.Value, error) {
	if format == "auto" {
		format = "yaml"
		if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			format = "json"
		}
	}
	switch format {
	case "json":
		data = jsonc.ToJSON(data)
	case "yaml":
	default:
		return nil, fmt.Errorf("unknown format %q: %w", format, xerr.InvalidInput)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var values []cbor.Value
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", format, err)
		}
		v, err := fromNode(&doc)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty input: %w", xerr.InvalidInput)
	}
	return values, nil
}

// cborTag matches the local YAML tags written by decode, such as !32.
var cborTag = regexp.MustCompile(`^!([0-9]+)$`)

var integerLiteral = regexp.MustCompile(`^[-+]?[0-9]+$`)

func fromNode(n *yaml.Node) (cbor.Value, error) {
	if m := cborTag.FindStringSubmatch(n.Tag); m != nil {
		tag, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: tag %s: %w", n.Line, m[1], xerr.InvalidInput)
		}
		inner := *n
		inner.Tag = ""
		v, err := fromNode(&inner)
		if err != nil {
			return nil, err
		}
		resolved, err := cbor.Tagged{Tag: tag, Value: v}.Resolve()
		if err != nil {
			return nil, fmt.Errorf("line %d: tag %d: %w", n.Line, tag, err)
		}
		return resolved, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cbor.Null{}, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		arr := make(cbor.Array, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		m := make(cbor.Map, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := fromNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m = append(m, cbor.Pair{Key: key, Value: val})
		}
		return m, nil
	default:
		return fromScalar(n)
	}
}

func fromScalar(n *yaml.Node) (cbor.Value, error) {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return cbor.Null{}, nil
	case "!!str":
		return cbor.Text(n.Value), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return cbor.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return cbor.Int(i), nil
		}
		return bigLiteral(n)
	case "!!float":
		if integerLiteral.MatchString(n.Value) {
			return bigLiteral(n)
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return cbor.Float(f), nil
	case "!!binary":
		p, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("line %d: binary: %w", n.Line, err)
		}
		return cbor.Bytes(p), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return cbor.NewTimestamp(t), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported tag %s: %w", n.Line, tag, xerr.NotRepresentable)
	}
}

// bigLiteral parses integers outside the int64 range, which YAML
// resolves to uint64 or float.
func bigLiteral(n *yaml.Node) (cbor.Value, error) {
	i, ok := new(big.Int).SetString(strings.TrimPrefix(n.Value, "+"), 0)
	if !ok {
		return nil, fmt.Errorf("line %d: integer %q: %w", n.Line, n.Value, xerr.InvalidInput)
	}
	return cbor.NewInteger(i), nil
}
