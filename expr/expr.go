// Package expr implements the small arithmetic expression language used by
// tunable config fields. A field may hold a plain number or a formula over
// named variables, e.g. "0.02 * radius * radius + clamp(energy / 100, 0, 1)".
package expr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[-+*/(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[Expr](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Expr is a sum of terms.
type Expr struct {
	Left *Term     `parser:"@@"`
	Rest []*OpTerm `parser:"@@*"`
}

// OpTerm is one "+ term" or "- term" continuation.
type OpTerm struct {
	Op   string `parser:"@('+' | '-')"`
	Term *Term  `parser:"@@"`
}

// Term is a product of unary factors.
type Term struct {
	Left *Unary     `parser:"@@"`
	Rest []*OpUnary `parser:"@@*"`
}

// OpUnary is one "* factor" or "/ factor" continuation.
type OpUnary struct {
	Op    string `parser:"@('*' | '/')"`
	Unary *Unary `parser:"@@"`
}

// Unary is an optionally negated atom.
type Unary struct {
	Neg  *Unary `parser:"  '-' @@"`
	Atom *Atom  `parser:"| @@"`
}

// Atom is a call, literal, variable reference, or parenthesized expression.
type Atom struct {
	Call   *Call    `parser:"  @@"`
	Number *float64 `parser:"| @Number"`
	Ident  *string  `parser:"| @Ident"`
	Sub    *Expr    `parser:"| '(' @@ ')'"`
}

// Call is a builtin function application: min, max, abs, clamp.
type Call struct {
	Name string  `parser:"@Ident '('"`
	Args []*Expr `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// Parse compiles a formula.
func Parse(src string) (*Expr, error) {
	return parser.ParseString("", src)
}

// Eval resolves the expression against the given variables. Unknown
// variables evaluate to 0, as does division by zero.
func (e *Expr) Eval(vars map[string]float64) float64 {
	v := e.Left.eval(vars)
	for _, t := range e.Rest {
		r := t.Term.eval(vars)
		if t.Op == "+" {
			v += r
		} else {
			v -= r
		}
	}
	return v
}

func (t *Term) eval(vars map[string]float64) float64 {
	v := t.Left.eval(vars)
	for _, u := range t.Rest {
		r := u.Unary.eval(vars)
		if u.Op == "*" {
			v *= r
		} else if r == 0 {
			v = 0
		} else {
			v /= r
		}
	}
	return v
}

func (u *Unary) eval(vars map[string]float64) float64 {
	if u.Neg != nil {
		return -u.Neg.eval(vars)
	}
	return u.Atom.eval(vars)
}

func (a *Atom) eval(vars map[string]float64) float64 {
	switch {
	case a.Call != nil:
		return a.Call.eval(vars)
	case a.Number != nil:
		return *a.Number
	case a.Ident != nil:
		return vars[*a.Ident]
	case a.Sub != nil:
		return a.Sub.Eval(vars)
	}
	return 0
}

func (c *Call) eval(vars map[string]float64) float64 {
	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Eval(vars)
	}
	switch c.Name {
	case "min":
		if len(args) == 0 {
			return 0
		}
		v := args[0]
		for _, a := range args[1:] {
			if a < v {
				v = a
			}
		}
		return v
	case "max":
		if len(args) == 0 {
			return 0
		}
		v := args[0]
		for _, a := range args[1:] {
			if a > v {
				v = a
			}
		}
		return v
	case "abs":
		if len(args) != 1 {
			return 0
		}
		if args[0] < 0 {
			return -args[0]
		}
		return args[0]
	case "clamp":
		if len(args) != 3 {
			return 0
		}
		v := args[0]
		if v < args[1] {
			return args[1]
		}
		if v > args[2] {
			return args[2]
		}
		return v
	}
	return 0
}
