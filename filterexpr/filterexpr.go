// Package filterexpr compiles filter expression strings into the flat
// field/operation/value conditions the results search API understands.
//
// Expressions use CEL syntax, restricted to conjunctions of comparisons
// against literal values:
//
//	input.Ef > 0.2 && input.Lg in [20, 45] && like(input.name, "fet%")
//
// Supported operators are ==, !=, >, <, >=, <= (mapped to the API's
// comparison operations), in with a literal list, and the like(field,
// pattern) function for SQL-style pattern matching. The left-hand side of
// every comparison must be a field path; the right-hand side must be a
// literal. Disjunctions, negation of sub-expressions, and computed values
// are not expressible in the API's filter model and are rejected.
package filterexpr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
)

// Condition is one parsed filter condition.
type Condition struct {
	// Field is the namespaced field path (e.g., "input.Ef").
	Field string

	// Op is the API operation: one of =, !=, >, <, >=, <=, like, in.
	Op string

	// Value is the literal comparand: a scalar, or a []any for "in".
	Value any
}

// comparisons maps CEL operator functions to API operations.
var comparisons = map[string]string{
	operators.Equals:        "=",
	operators.NotEquals:     "!=",
	operators.Greater:       ">",
	operators.GreaterEquals: ">=",
	operators.Less:          "<",
	operators.LessEquals:    "<=",
}

// Parsing needs no declarations: expressions are parsed, not type-checked,
// so field names stay free identifiers.
var parseEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv()
})

// Parse compiles an expression into its filter conditions, in left-to-right
// order. A syntactically valid expression that falls outside the supported
// subset (for example, an || disjunction) is an error.
func Parse(src string) ([]Condition, error) {
	env, err := parseEnv()
	if err != nil {
		return nil, fmt.Errorf("initialize expression parser: %w", err)
	}

	ast, iss := env.Parse(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("parse filter expression: %w", iss.Err())
	}

	var conds []Condition
	if err := collect(ast.NativeRep().Expr(), &conds); err != nil {
		return nil, err
	}
	if len(conds) == 0 {
		return nil, errors.New("filter expression contains no conditions")
	}
	return conds, nil
}

// collect walks a conjunction tree, appending one Condition per comparison
// leaf.
func collect(e celast.Expr, out *[]Condition) error {
	if e.Kind() != celast.CallKind {
		return fmt.Errorf("unsupported expression: expected a comparison, got %s", kindName(e.Kind()))
	}

	call := e.AsCall()
	fn := call.FunctionName()

	if fn == operators.LogicalAnd {
		for _, arg := range call.Args() {
			if err := collect(arg, out); err != nil {
				return err
			}
		}
		return nil
	}

	if fn == operators.LogicalOr {
		return errors.New("unsupported expression: || is not expressible as API filters (filters are AND-combined)")
	}

	cond, err := comparison(call)
	if err != nil {
		return err
	}
	*out = append(*out, cond)
	return nil
}

// comparison converts one comparison call into a Condition.
func comparison(call celast.CallExpr) (Condition, error) {
	fn := call.FunctionName()

	if op, ok := comparisons[fn]; ok {
		args := call.Args()
		if len(args) != 2 {
			return Condition{}, fmt.Errorf("operator %s requires two operands", op)
		}
		field, err := fieldPath(args[0])
		if err != nil {
			return Condition{}, err
		}
		value, err := literal(args[1])
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: op, Value: value}, nil
	}

	switch fn {
	case operators.In:
		args := call.Args()
		if len(args) != 2 {
			return Condition{}, errors.New("in requires a field and a list")
		}
		field, err := fieldPath(args[0])
		if err != nil {
			return Condition{}, err
		}
		if args[1].Kind() != celast.ListKind {
			return Condition{}, errors.New("in requires a literal list on the right-hand side")
		}
		value, err := literal(args[1])
		if err != nil {
			return Condition{}, err
		}
		return Condition{Field: field, Op: "in", Value: value}, nil

	case "like":
		// Accept both like(field, pattern) and field.like(pattern).
		var fieldExpr, patExpr celast.Expr
		args := call.Args()
		switch {
		case call.IsMemberFunction() && len(args) == 1:
			fieldExpr, patExpr = call.Target(), args[0]
		case !call.IsMemberFunction() && len(args) == 2:
			fieldExpr, patExpr = args[0], args[1]
		default:
			return Condition{}, errors.New("like requires a field and a pattern")
		}
		field, err := fieldPath(fieldExpr)
		if err != nil {
			return Condition{}, err
		}
		pat, err := literal(patExpr)
		if err != nil {
			return Condition{}, err
		}
		if _, ok := pat.(string); !ok {
			return Condition{}, errors.New("like requires a string pattern")
		}
		return Condition{Field: field, Op: "like", Value: pat}, nil
	}

	return Condition{}, fmt.Errorf("unsupported operator %q", fn)
}

// fieldPath flattens an identifier or dotted selection into a field name
// like "input.Ef".
func fieldPath(e celast.Expr) (string, error) {
	switch e.Kind() {
	case celast.IdentKind:
		return e.AsIdent(), nil
	case celast.SelectKind:
		sel := e.AsSelect()
		base, err := fieldPath(sel.Operand())
		if err != nil {
			return "", err
		}
		return base + "." + sel.FieldName(), nil
	default:
		return "", fmt.Errorf("left-hand side must be a field name, got %s", kindName(e.Kind()))
	}
}

// literal extracts a Go value from a literal expression, a negated numeric
// literal, or a list of literals.
func literal(e celast.Expr) (any, error) {
	switch e.Kind() {
	case celast.LiteralKind:
		switch v := e.AsLiteral().Value().(type) {
		case int64, uint64, float64, string, bool:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported literal type %T", v)
		}

	case celast.ListKind:
		list := e.AsList()
		out := make([]any, 0, list.Size())
		for _, el := range list.Elements() {
			v, err := literal(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case celast.CallKind:
		// The parser represents negative numbers as a negation call.
		call := e.AsCall()
		if call.FunctionName() == operators.Negate && len(call.Args()) == 1 {
			v, err := literal(call.Args()[0])
			if err != nil {
				return nil, err
			}
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		}
		return nil, errors.New("right-hand side must be a literal value")

	default:
		return nil, fmt.Errorf("right-hand side must be a literal value, got %s", kindName(e.Kind()))
	}
}

func kindName(k celast.ExprKind) string {
	switch k {
	case celast.CallKind:
		return "call"
	case celast.IdentKind:
		return "identifier"
	case celast.SelectKind:
		return "selection"
	case celast.LiteralKind:
		return "literal"
	case celast.ListKind:
		return "list"
	case celast.MapKind:
		return "map"
	case celast.StructKind:
		return "struct"
	case celast.ComprehensionKind:
		return "comprehension"
	default:
		return "expression"
	}
}
