// ABOUTME: Lenient argument types shared by tool argument structs
// ABOUTME: Text accepts any JSON value as a string; Int accepts numbers or numeric strings

package tools

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Text is a string argument that also accepts numbers, booleans and
// structured values, which are kept as their JSON text. null is empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = Text(buf.String())
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Trimmed returns the text without surrounding whitespace.
func (t Text) Trimmed() string { return strings.TrimSpace(string(t)) }

func (Text) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

// Int is an optional integer argument. Numbers are truncated, numeric
// strings are parsed, and anything else leaves it unset.
type Int struct {
	Value int
	Set   bool
}

func (n *Int) UnmarshalJSON(data []byte) error {
	*n = Int{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		f = math.MaxInt32
	} else if f < math.MinInt32 {
		f = math.MinInt32
	}
	*n = Int{Value: int(f), Set: true}
	return nil
}

func (n Int) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

// Or returns the value, or def when unset.
func (n Int) Or(def int) int {
	if !n.Set {
		return def
	}
	return n.Value
}

func (Int) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer"}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
