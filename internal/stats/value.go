// Package stats holds the small numeric helpers shared by the consensus and
// variance packages: an optional float ("undefined" rather than NaN), mean over
// defined values, median and mode.
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is a float64 that may be undefined. The zero Value is undefined.
type Value struct {
	Float float64
	Valid bool
}

// Undefined returns an undefined Value.
func Undefined() Value {
	return Value{}
}

// Of returns a defined Value holding f.
func Of(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Get returns the float and whether it is defined.
func (v Value) Get() (float64, bool) {
	return v.Float, v.Valid
}

// Or returns the float, or fallback when undefined.
func (v Value) Or(fallback float64) float64 {
	if !v.Valid {
		return fallback
	}
	return v.Float
}

// Abs returns the absolute value, keeping undefined as undefined.
func (v Value) Abs() Value {
	if !v.Valid {
		return v
	}
	return Of(math.Abs(v.Float))
}

// String formats the value with four decimals, or "n/a".
func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.Float, 'f', 4, 64)
}

// CSV formats the value for a CSV cell; undefined is an empty cell.
func (v Value) CSV() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}

// MarshalJSON encodes undefined as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return nil, fmt.Errorf("stats: cannot encode non-finite value %v", v.Float)
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON decodes null as undefined.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}

// MarshalYAML encodes undefined as null.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.Float, nil
}

// UnmarshalYAML decodes null as undefined.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || node.Value == "" || node.Value == "~" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
