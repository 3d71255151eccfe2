package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/exprtrace/internal/expr"
)

// ParseArg converts command-line or scenario text to a value of type t.
// Sequences are comma separated, optionally in brackets: "1,2,3" or "[1, 2, 3]".
func ParseArg(t expr.Type, s string) (expr.Value, error) {
	switch t := t.(type) {
	case expr.SeqType:
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		items := []expr.Value{}
		if strings.TrimSpace(s) != "" {
			for _, part := range strings.Split(s, ",") {
				v, err := ParseArg(t.Elem, strings.TrimSpace(part))
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
		}
		return expr.Seq{Elem: t.Elem, Items: items}, nil
	case expr.FuncType:
		return nil, fmt.Errorf("parse argument: function values cannot be given as text")
	}

	switch t {
	case expr.IntType:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse argument %q as int: %w", s, err)
		}
		return expr.Int(n), nil
	case expr.BoolType:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("parse argument %q as bool: %w", s, err)
		}
		return expr.Bool(b), nil
	case expr.StringType:
		return expr.Str(s), nil
	}
	return nil, fmt.Errorf("parse argument: unsupported type %s", t)
}

// ParseArgs converts one text argument per lambda parameter.
func ParseArgs(l *expr.Lambda, args []string) ([]expr.Value, error) {
	if len(args) != len(l.Params) {
		return nil, fmt.Errorf("want %d argument(s), got %d", len(l.Params), len(args))
	}
	out := make([]expr.Value, len(args))
	for i, p := range l.Params {
		v, err := ParseArg(p.Typ, args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.Name, err)
		}
		out[i] = v
	}
	return out, nil
}
