package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// expr is a compiled boolean CEL expression over a message. The zero value
// is disabled and always matches.
type expr struct {
	prog    cel.Program
	enabled bool
}

var exprEnv = func() *cel.Env {
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		// Parsed JSON payload (map/list/values), or the raw text when not JSON.
		cel.Variable("json", cel.DynType),
		cel.Variable("size", cel.IntType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		panic(fmt.Sprintf("widget: cel env: %v", err))
	}
	return env
}()

func compileExpr(src string) (expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return expr{}, nil
	}
	ast, iss := exprEnv.Parse(src)
	if iss != nil && iss.Err() != nil {
		return expr{}, fmt.Errorf("%w: %v", ErrInvalidOptions, iss.Err())
	}
	checked, iss := exprEnv.Check(ast)
	if iss != nil && iss.Err() != nil {
		return expr{}, fmt.Errorf("%w: %v", ErrInvalidOptions, iss.Err())
	}
	prog, err := exprEnv.Program(checked)
	if err != nil {
		return expr{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return expr{prog: prog, enabled: true}, nil
}

// Eval reports whether m satisfies the expression. Evaluation errors and
// non-boolean results count as false.
func (e expr) Eval(m Message, now time.Time) bool {
	if !e.enabled {
		return true
	}
	out, _, err := e.prog.Eval(map[string]any{
		"text":   m.Text,
		"json":   Decode(m.Text, ""),
		"size":   int64(len(m.Text)),
		"topic":  m.Topic,
		"now_ms": now.UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
