package lower

import (
	"strings"

	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

// lowerPrint writes every argument according to its type, in order.
// Without arguments it writes a newline.
func lowerPrint(_ Env, op string, args []Parameter) (Parameter, error) {
	if len(args) == 0 {
		return Statements(`puts("")`), nil
	}
	lines := make([]string, 0, len(args))
	for _, a := range args {
		if err := requireValue(op, a); err != nil {
			return Parameter{}, err
		}
		line, err := printCall(a)
		if err != nil {
			return Parameter{}, err
		}
		lines = append(lines, line)
	}
	return Statements(lines...), nil
}

func printCall(p Parameter) (string, error) {
	switch p.Type {
	case types.String:
		return "fputs(" + p.Value + ", stdout)", nil
	case types.Char, types.Uchar:
		return "putchar(" + p.Value + ")", nil
	case types.Int:
		return `printf("%lld", ` + p.Value + ")", nil
	case types.Uint:
		return `printf("%llu", ` + p.Value + ")", nil
	case types.Num:
		return `printf("%f", ` + p.Value + ")", nil
	default:
		return "", errors.Unprintable(p.Type.String())
	}
}

// lowerInlineC splices string literals into the output verbatim, one line each.
func lowerInlineC(_ Env, _ string, args []Parameter) (Parameter, error) {
	lines := make([]string, 0, len(args))
	for _, a := range args {
		if !isStringLiteral(a) {
			return Parameter{}, errors.InvalidInlineC(a.String())
		}
		lines = append(lines, removeEscape(a.Value[1:len(a.Value)-1]))
	}
	return Raw(lines...), nil
}

func isStringLiteral(p Parameter) bool {
	return p.IsValue() && p.Type == types.String &&
		len(p.Value) >= 2 && p.Value[0] == '"' && p.Value[len(p.Value)-1] == '"'
}

// removeEscape drops every backslash that starts an escape sequence, keeping the
// escaped character: \" becomes " and \\ becomes \.
func removeEscape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteByte(c)
	}
	return sb.String()
}
