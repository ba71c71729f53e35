package expr

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is a config field that is either a numeric literal or a formula.
// The original source text is kept so marshalling round-trips losslessly.
type Value struct {
	raw     string
	num     float64
	literal bool
	expr    *Expr
}

// Literal wraps a plain number.
func Literal(f float64) Value {
	return Value{num: f, literal: true}
}

// Formula parses src as an expression.
func Formula(src string) (Value, error) {
	if f, err := strconv.ParseFloat(src, 64); err == nil {
		return Value{raw: src, num: f, literal: true}, nil
	}
	e, err := Parse(src)
	if err != nil {
		return Value{}, fmt.Errorf("parse formula %q: %w", src, err)
	}
	return Value{raw: src, expr: e}, nil
}

// MustFormula is Formula for known-good source, panicking on error.
func MustFormula(src string) Value {
	v, err := Formula(src)
	if err != nil {
		panic(err)
	}
	return v
}

// Eval resolves the value against the given variables. Literals ignore vars.
func (v Value) Eval(vars map[string]float64) float64 {
	if v.expr == nil {
		return v.num
	}
	return v.expr.Eval(vars)
}

// IsZero reports whether the value is an unset literal zero. Used by yaml
// omitempty handling.
func (v Value) IsZero() bool {
	return v.expr == nil && v.num == 0 && v.raw == ""
}

func (v Value) String() string {
	if v.raw != "" {
		return v.raw
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// UnmarshalYAML accepts a bare number or a formula string.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var f float64
	if err := node.Decode(&f); err == nil {
		*v = Value{raw: node.Value, num: f, literal: true}
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("expr value at line %d: %w", node.Line, err)
	}
	parsed, err := Formula(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML emits the literal number or the original formula text.
func (v Value) MarshalYAML() (any, error) {
	if v.literal {
		return v.num, nil
	}
	return v.raw, nil
}

// UnmarshalJSON accepts a bare number or a formula string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Value{raw: string(data), num: f, literal: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expr value: %w", err)
	}
	parsed, err := Formula(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON emits the literal number or the original formula text.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.literal {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.raw)
}
