package types

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestPointerAlgebra(t *testing.T) {
	tests := []struct {
		typ     Type
		pointer bool
		elem    Type
	}{
		{Int, false, Int},
		{"int*", true, Int},
		{"Point*", true, "Point"},
		{"Point", false, "Point"},
		{String, true, Char},
		{"*", false, "*"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			be.Equal(t, tt.typ.IsPointer(), tt.pointer)
			be.Equal(t, tt.typ.Elem(), tt.elem)
			if tt.pointer {
				// stripping then appending restores the type
				be.Equal(t, tt.typ.Elem().Pointer(), tt.typ)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	be.Equal(t, Int.Kind(), KindInt)
	be.Equal(t, Type("uint*").Kind(), KindUint)
	be.Equal(t, Type("Point").Kind(), KindClass)
	be.Equal(t, Type("9lives").Kind(), KindInvalid)
	be.Equal(t, KindClass.String(), "class")

	be.True(t, Int.IsNumeric())
	be.True(t, Num.IsNumeric())
	be.True(t, !Char.IsNumeric())
	be.True(t, !Type("int*").IsNumeric())
	be.True(t, Uchar.IsNarrow())
	be.True(t, Type("Point").IsClass())
	be.True(t, !Type("Point*").IsClass())
	be.True(t, Type("num*").IsPrimitive())
}

func TestTranslate(t *testing.T) {
	tests := map[Type]string{
		Int:      "ll",
		Uint:     "ull",
		Num:      "num",
		Char:     "char",
		Uchar:    "uchar",
		"int*":   "ll*",
		"uint*":  "ull*",
		"Point":  "Point",
		"Point*": "Point*",
		String:   "char*",
	}
	for in, want := range tests {
		be.Equal(t, in.Translate(), want)
	}
}

func TestCompatible(t *testing.T) {
	be.True(t, Compatible(Int, Num))
	be.True(t, Compatible(Uint, Int))
	be.True(t, Compatible("Point", "Point"))
	be.True(t, !Compatible(Int, "Point"))
	be.True(t, !Compatible(Char, Int))
	be.True(t, !Compatible("int*", Int))
}

func TestPromote(t *testing.T) {
	tests := []struct {
		name string
		ops  []Type
		want Type
		ok   bool
	}{
		{"ints", []Type{Int, Int}, Int, true},
		{"unsigned", []Type{Uint, Uint, Uint}, Uint, true},
		{"mixed sign", []Type{Uint, Int}, Int, true},
		{"float wins", []Type{Int, Num, Uint}, Num, true},
		{"chars promote to int", []Type{Char, Uchar}, Int, true},
		{"pointer arithmetic", []Type{"char*", Int}, "char*", true},
		{"float and pointer", []Type{"char*", Num}, None, false},
		{"class operand", []Type{Int, "Point"}, None, false},
		{"empty", nil, None, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Promote(tt.ops...)
			be.Equal(t, ok, tt.ok)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestIdentifiers(t *testing.T) {
	be.True(t, IsIdentifier("x"))
	be.True(t, IsIdentifier("_tmp9"))
	be.True(t, !IsIdentifier("9x"))
	be.True(t, !IsIdentifier("a-b"))
	be.True(t, !IsIdentifier("while"))
	be.True(t, !IsIdentifier("ll"))
	be.True(t, !IsIdentifier(""))
	be.True(t, IsIdentifierText("while"))
}

func TestParse(t *testing.T) {
	for _, ok := range []string{"int", "Point*", " num "} {
		_, parsed := Parse(ok)
		be.True(t, parsed)
	}
	for _, bad := range []string{"int**", "void*", "", "a b"} {
		_, parsed := Parse(bad)
		be.True(t, !parsed)
	}
}
