// Package lower turns operator applications, casts and the print and inline C
// builtins into C text.
//
// Every lowering step consumes and produces Parameters: already lowered C text
// paired with its semantic type.
package lower

import (
	"strings"

	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

// Form tells how a Parameter may be used.
type Form int

const (
	// FormValue is a C expression.
	FormValue Form = iota
	// FormStatements is a sequence of C statements, each terminated with a semicolon.
	FormStatements
	// FormRaw is a sequence of verbatim C lines.
	FormRaw
	// FormType names a type; it is only meaningful as an operand of cast, new and sizeof.
	FormType
)

// Parameter is one lowered expression, statement sequence or type name.
type Parameter struct {
	Value string
	Type  types.Type
	Form  Form
	Lines []string
	// Addressable is set for expressions that denote storage: variables,
	// attributes of storage and dereferenced pointers.
	Addressable bool
}

// Value creates an expression parameter.
func Value(value string, t types.Type) Parameter {
	return Parameter{Value: value, Type: t}
}

// Storage creates an addressable expression parameter.
func Storage(value string, t types.Type) Parameter {
	return Parameter{Value: value, Type: t, Addressable: true}
}

// TypeName creates a parameter naming t.
func TypeName(t types.Type) Parameter {
	return Parameter{Value: t.Translate(), Type: t, Form: FormType}
}

// Statements creates a statement sequence.
func Statements(lines ...string) Parameter {
	return Parameter{Type: types.Void, Form: FormStatements, Lines: lines}
}

// Raw creates a sequence of verbatim lines.
func Raw(lines ...string) Parameter {
	return Parameter{Type: types.Void, Form: FormRaw, Lines: lines}
}

// IsValue reports whether p can be used as an operand.
func (p Parameter) IsValue() bool { return p.Form == FormValue }

// Emit returns the lines that make p a complete statement, terminators included.
func (p Parameter) Emit() []string {
	switch p.Form {
	case FormValue:
		return []string{p.Value + ";"}
	case FormStatements:
		out := make([]string, len(p.Lines))
		for i, l := range p.Lines {
			out[i] = l + ";"
		}
		return out
	case FormRaw:
		return p.Lines
	default:
		return nil
	}
}

func (p Parameter) String() string {
	if p.Form == FormValue || p.Form == FormType {
		return p.Value
	}
	return strings.Join(p.Lines, "; ")
}

// requireStorage fails with NotAddressable unless p denotes storage.
func requireStorage(what string, p Parameter) error {
	if !p.Addressable {
		return errors.NotAddressable(what, p.String())
	}
	return nil
}

// requireValue fails with NotAValue unless every parameter is an expression.
func requireValue(what string, params ...Parameter) error {
	for _, p := range params {
		if !p.IsValue() {
			if p.Form == FormType {
				return errors.NotAValue("type name " + string(p.Type) + " in " + what)
			}
			return errors.NotAValue(what + " operand " + p.String())
		}
	}
	return nil
}
