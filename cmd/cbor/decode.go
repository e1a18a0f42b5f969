package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
	"sutext.github.io/cbor/xlog"
)

func decodeCommand() *command {
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	asYAML := flags.BoolP("yaml", "y", false, "write YAML instead of JSON")
	pretty := flags.BoolP("pretty", "p", false, "indent JSON output")
	seq := flags.BoolP("seq", "s", false, "read a CBOR sequence, one output document per item")
	hexIn := flags.BoolP("hex", "x", false, "read hex instead of binary")
	return &command{
		name:    "decode",
		summary: "Convert CBOR to JSON or YAML",
		usage:   "cbor decode [-y] [-p] [-s] [-x] [file]",
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
			e.logger.Debug("decoded", xlog.Size(len(data)), xlog.Int("values", len(values)))
			if *asYAML {
				return writeYAML(e.stdout, values)
			}
			for _, v := range values {
				if err := writeJSON(e.stdout, v, *pretty); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// writeYAML writes one document per value. Tags without a YAML
// counterpart become local tags such as !32, which encode reads back.
func writeYAML(w io.Writer, values []cbor.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, v := range values {
		n, err := toNode(v)
		if err != nil {
			return err
		}
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return enc.Close()
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toNode(v cbor.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil, cbor.Null, cbor.Undefined:
		return scalar("!!null", "null"), nil
	case cbor.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(v))), nil
	case cbor.Int:
		return scalar("!!int", strconv.FormatInt(int64(v), 10)), nil
	case cbor.BigInt:
		return scalar("!!int", v.String()), nil
	case cbor.Float:
		return scalar("!!float", yamlFloat(float64(v))), nil
	case cbor.Bytes:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v)), nil
	case cbor.Text:
		return scalar("!!str", string(v)), nil
	case cbor.Timestamp:
		return scalar("!!timestamp", v.UTC().Format(time.RFC3339Nano)), nil
	case cbor.Decimal:
		if v.IsNaN() || v.IsInf(0) {
			return scalar("!!float", yamlFloat(v.Float64())), nil
		}
		exponent, mantissa := v.Parts()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: fmt.Sprintf("!%d", cbor.TagDecimal), Style: yaml.FlowStyle}
		n.Content = []*yaml.Node{
			scalar("!!int", strconv.FormatInt(exponent, 10)),
			scalar("!!int", mantissa.String()),
		}
		return n, nil
	case cbor.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			child, err := toNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case cbor.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v {
			key, err := toNode(p.Key)
			if err != nil {
				return nil, err
			}
			val, err := toNode(p.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, key, val)
		}
		return n, nil
	case cbor.Tagged:
		n, err := toNode(v.Value)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
			return nil, fmt.Errorf("nested tag %d: %w", v.Tag, xerr.NotRepresentable)
		}
		n.Tag = fmt.Sprintf("!%d", v.Tag)
		return n, nil
	}
	return nil, fmt.Errorf("%T: %w", v, xerr.NotRepresentable)
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// writeJSON writes v as one line of JSON, keeping map order. Maps need
// text keys; tagged values and non-finite numbers have no JSON form.
func writeJSON(w io.Writer, v cbor.Value, pretty bool) error {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return err
	}
	if pretty {
		var out bytes.Buffer
		if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
			return err
		}
		buf = out
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func appendJSON(buf *bytes.Buffer, v cbor.Value) error {
	switch v := v.(type) {
	case nil, cbor.Null, cbor.Undefined:
		buf.WriteString("null")
	case cbor.Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case cbor.Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case cbor.BigInt:
		buf.WriteString(v.String())
	case cbor.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%v: %w", f, xerr.NotRepresentable)
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case cbor.Bytes:
		appendString(buf, base64.StdEncoding.EncodeToString(v))
	case cbor.Text:
		appendString(buf, string(v))
	case cbor.Timestamp:
		appendString(buf, v.UTC().Format(time.RFC3339Nano))
	case cbor.Decimal:
		if v.IsNaN() || v.IsInf(0) {
			return fmt.Errorf("%s: %w", v, xerr.NotRepresentable)
		}
		buf.WriteString(v.String())
	case cbor.Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case cbor.Map:
		buf.WriteByte('{')
		for i, p := range v {
			key, ok := p.Key.(cbor.Text)
			if !ok {
				return fmt.Errorf("key of type %T, use --yaml: %w", p.Key, xerr.NonTextKey)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			appendString(buf, string(key))
			buf.WriteByte(':')
			if err := appendJSON(buf, p.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case cbor.Tagged:
		return fmt.Errorf("tag %d, use --yaml or diag: %w", v.Tag, xerr.NotRepresentable)
	default:
		return fmt.Errorf("%T: %w", v, xerr.NotRepresentable)
	}
	return nil
}

func appendString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.Encode(s)
	// Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
}
