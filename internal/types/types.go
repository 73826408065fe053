// Package types implements the semantic type model of the koberic translator:
// the numeric lattice, narrow character kinds, named class types and a single
// level of pointer indirection, together with their C spellings.
package types

import (
	"strings"
)

// Kind classifies a Type.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindNum
	KindChar
	KindUchar
	KindVoid
	KindClass
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindNum:
		return "num"
	case KindChar:
		return "char"
	case KindUchar:
		return "uchar"
	case KindVoid:
		return "void"
	case KindClass:
		return "class"
	default:
		return "invalid"
	}
}

// Type is a source-level type name. A pointer type is its pointee's name
// followed by PointerMarker.
type Type string

const (
	None  Type = ""
	Int   Type = "int"
	Uint  Type = "uint"
	Num   Type = "num"
	Char  Type = "char"
	Uchar Type = "uchar"
	Void  Type = "void"

	// String is the type of a string literal.
	String Type = "char*"
)

// PointerMarker is the trailing character that turns a type into a pointer type.
const PointerMarker = '*'

var cNames = map[Type]string{
	Int:   "ll",
	Uint:  "ull",
	Num:   "num",
	Char:  "char",
	Uchar: "uchar",
	Void:  "void",
}

// IsPointer reports whether t is a pointer type.
func (t Type) IsPointer() bool {
	return len(t) > 1 && t[len(t)-1] == PointerMarker
}

// Elem strips the pointer marker. Non-pointer types are returned unchanged.
func (t Type) Elem() Type {
	if t.IsPointer() {
		return t[:len(t)-1]
	}
	return t
}

// Pointer returns the pointer-to-t type.
func (t Type) Pointer() Type {
	return t + Type(PointerMarker)
}

// Kind classifies the pointee of t; use IsPointer to tell T from T*.
func (t Type) Kind() Kind {
	switch base := t.Elem(); base {
	case Int:
		return KindInt
	case Uint:
		return KindUint
	case Num:
		return KindNum
	case Char:
		return KindChar
	case Uchar:
		return KindUchar
	case Void:
		return KindVoid
	default:
		if IsIdentifier(string(base)) {
			return KindClass
		}
		return KindInvalid
	}
}

// IsNumeric is true for the non-pointer types int, uint and num.
func (t Type) IsNumeric() bool {
	return t == Int || t == Uint || t == Num
}

// IsNarrow is true for the non-pointer character types.
func (t Type) IsNarrow() bool {
	return t == Char || t == Uchar
}

// IsPrimitive is true when the pointee of t is a builtin type.
func (t Type) IsPrimitive() bool {
	_, ok := cNames[t.Elem()]
	return ok
}

// IsClass is true for a named, non-pointer class type.
func (t Type) IsClass() bool {
	return !t.IsPointer() && t.Kind() == KindClass
}

// Translate maps t to its C spelling, preserving the pointer suffix.
func (t Type) Translate() string {
	base := t.Elem()
	name, ok := cNames[base]
	if !ok {
		name = string(base)
	}
	if t.IsPointer() {
		return name + string(PointerMarker)
	}
	return name
}

func (t Type) String() string {
	if t == None {
		return "<none>"
	}
	return string(t)
}

// Compatible reports whether a value of type actual may initialize or be assigned to
// storage of type declared: numeric to numeric always is, anything else must match exactly.
func Compatible(declared, actual Type) bool {
	if declared.IsNumeric() && actual.IsNumeric() {
		return true
	}
	return declared == actual
}

// Promote returns the result type of an arithmetic operation over operands.
// num wins over everything, then a pointer operand, then int; uint survives only
// when every operand is uint. The second result is false when an operand is not
// numeric, narrow or a pointer.
func Promote(operands ...Type) (Type, bool) {
	if len(operands) == 0 {
		return None, false
	}
	sawNum, allUnsigned := false, true
	ptr := None
	for _, op := range operands {
		switch {
		case op == Num:
			sawNum = true
			allUnsigned = false
		case op.IsPointer():
			if ptr != None && ptr != op {
				return None, false
			}
			ptr = op
			allUnsigned = false
		case op == Uint:
		case op == Int || op.IsNarrow():
			allUnsigned = false
		default:
			return None, false
		}
	}
	switch {
	case sawNum && ptr != None:
		return None, false
	case sawNum:
		return Num, true
	case ptr != None:
		return ptr, true
	case allUnsigned:
		return Uint, true
	default:
		return Int, true
	}
}

// IsIdentifier reports whether s is a valid C identifier that is not a reserved word.
func IsIdentifier(s string) bool {
	return !cKeywords[s] && IsIdentifierText(s)
}

// IsIdentifierText checks the character set only: [A-Za-z_][A-Za-z0-9_]*.
func IsIdentifierText(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
		if i == 0 && !letter {
			return false
		}
		if !letter && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// Parse validates the textual form of a type name. It does not check that a class exists.
func Parse(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	t := Type(s)
	if strings.Count(s, string(PointerMarker)) > 1 {
		return None, false
	}
	if t.Kind() == KindInvalid {
		return None, false
	}
	if t.Elem() == Void && t.IsPointer() {
		return None, false
	}
	return t, true
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true, "continue": true,
	"default": true, "do": true, "double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true, "volatile": true,
	"while": true, "main": true,
	// typedefs emitted into every translation unit
	"num": true, "ll": true, "ull": true, "uchar": true,
}
