package expr

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func eval(t *testing.T, src string, vars map[string]float64) float64 {
	t.Helper()
	e, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e.Eval(vars)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"2 * -3", -6},
		{"1 - 2 - 3", -4},
		{"100 / 10 / 2", 5},
		{"1.5 * 2", 3},
	}
	for _, tt := range tests {
		if got := eval(t, tt.src, nil); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestVariables(t *testing.T) {
	vars := map[string]float64{"radius": 5, "energy": 80}
	if got := eval(t, "0.02 * radius * radius", vars); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("got %v, want 0.5", got)
	}
	if got := eval(t, "energy / 100", vars); got != 0.8 {
		t.Errorf("got %v, want 0.8", got)
	}
}

func TestUnknownVariableIsZero(t *testing.T) {
	if got := eval(t, "missing + 3", nil); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestDivisionByZeroIsZero(t *testing.T) {
	if got := eval(t, "5 / 0", nil); got != 0 {
		t.Errorf("5/0 = %v, want 0", got)
	}
	if got := eval(t, "1 + 5 / missing", nil); got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"min(3, 7)", 3},
		{"max(3, 7)", 7},
		{"min(5, 2, 8)", 2},
		{"abs(-4)", 4},
		{"abs(4)", 4},
		{"clamp(5, 0, 3)", 3},
		{"clamp(-1, 0, 3)", 0},
		{"clamp(2, 0, 3)", 2},
	}
	for _, tt := range tests {
		if got := eval(t, tt.src, nil); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(1", "* 3"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		}
	}
}

func TestValueLiteral(t *testing.T) {
	v := Literal(2.5)
	if got := v.Eval(map[string]float64{"x": 99}); got != 2.5 {
		t.Errorf("literal eval = %v, want 2.5", got)
	}
}

func TestValueYAMLNumber(t *testing.T) {
	var v Value
	if err := yaml.Unmarshal([]byte("0.05"), &v); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if got := v.Eval(nil); got != 0.05 {
		t.Errorf("eval = %v, want 0.05", got)
	}
}

func TestValueYAMLFormula(t *testing.T) {
	var v Value
	if err := yaml.Unmarshal([]byte(`"radius * 2"`), &v); err != nil {
		t.Fatalf("unmarshal formula: %v", err)
	}
	if got := v.Eval(map[string]float64{"radius": 4}); got != 8 {
		t.Errorf("eval = %v, want 8", got)
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Value
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if got := back.Eval(map[string]float64{"radius": 4}); got != 8 {
		t.Errorf("round-tripped eval = %v, want 8", got)
	}
}

func TestValueYAMLBadFormula(t *testing.T) {
	var v Value
	if err := yaml.Unmarshal([]byte(`"1 +"`), &v); err == nil {
		t.Error("expected error for malformed formula")
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	v := MustFormula("min(10, energy * 0.1)")
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	vars := map[string]float64{"energy": 50}
	if v.Eval(vars) != back.Eval(vars) {
		t.Error("round-tripped formula evaluates differently")
	}
}
