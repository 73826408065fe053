// Package mangle encodes overloaded function and method signatures into unique
// C identifiers.
//
// Every name and type is written length-prefixed, so an identifier can always
// be split back into the signature that produced it:
//
//	add(int, int)        _koberic_3add_3int_3int
//	Point.move(num*)     _koberic_M5Point_4move_P3num
//
// Overload selection is purely syntactic: a call site mangles the exact ordered
// argument types and looks the result up.
package mangle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/koberi-lang/koberic/internal/types"
)

// Prefix starts every mangled identifier.
const Prefix = "_koberic_"

const methodTag = 'M'

// Signature is the decoded form of a mangled identifier.
type Signature struct {
	Name   string
	Params []types.Type
	Class  string // empty for free functions
}

// String renders the signature the way diagnostics spell it: Class.name(t1, t2).
func (s Signature) String() string {
	var sb strings.Builder
	if s.Class != "" {
		sb.WriteString(s.Class)
		sb.WriteByte('.')
	}
	sb.WriteString(s.Name)
	sb.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(p))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Mangle encodes the signature; see Function and Method.
func (s Signature) Mangle() string {
	if s.Class != "" {
		return Method(s.Class, s.Name, s.Params)
	}
	return Function(s.Name, s.Params)
}

// Function mangles a free function.
func Function(name string, params []types.Type) string {
	var sb strings.Builder
	sb.WriteString(Prefix)
	writeLen(&sb, name)
	writeParams(&sb, params)
	return sb.String()
}

// Method mangles a method of class.
func Method(class, name string, params []types.Type) string {
	var sb strings.Builder
	sb.WriteString(Prefix)
	sb.WriteByte(methodTag)
	writeLen(&sb, class)
	sb.WriteByte('_')
	writeLen(&sb, name)
	writeParams(&sb, params)
	return sb.String()
}

func writeLen(sb *strings.Builder, s string) {
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteString(s)
}

func writeParams(sb *strings.Builder, params []types.Type) {
	for _, p := range params {
		sb.WriteByte('_')
		if p.IsPointer() {
			sb.WriteByte('P')
		}
		writeLen(sb, string(p.Elem()))
	}
}

// Demangle decodes an identifier produced by Function or Method.
func Demangle(id string) (Signature, error) {
	if !strings.HasPrefix(id, Prefix) {
		return Signature{}, fmt.Errorf("%q is not a mangled identifier", id)
	}
	d := &decoder{s: id, pos: len(Prefix)}

	var sig Signature
	if d.peek() == methodTag {
		d.pos++
		class, err := d.lengthPrefixed()
		if err != nil {
			return Signature{}, err
		}
		if err := d.expect('_'); err != nil {
			return Signature{}, err
		}
		sig.Class = class
	}

	name, err := d.lengthPrefixed()
	if err != nil {
		return Signature{}, err
	}
	sig.Name = name

	for !d.done() {
		if err := d.expect('_'); err != nil {
			return Signature{}, err
		}
		pointer := false
		if d.peek() == 'P' {
			pointer = true
			d.pos++
		}
		base, err := d.lengthPrefixed()
		if err != nil {
			return Signature{}, err
		}
		t := types.Type(base)
		if pointer {
			t = t.Pointer()
		}
		sig.Params = append(sig.Params, t)
	}
	return sig, nil
}

type decoder struct {
	s   string
	pos int
}

func (d *decoder) done() bool { return d.pos >= len(d.s) }

func (d *decoder) peek() byte {
	if d.done() {
		return 0
	}
	return d.s[d.pos]
}

func (d *decoder) expect(c byte) error {
	if d.peek() != c {
		return fmt.Errorf("malformed mangled identifier %q: expected %q at offset %d", d.s, c, d.pos)
	}
	d.pos++
	return nil
}

func (d *decoder) lengthPrefixed() (string, error) {
	start := d.pos
	for !d.done() && d.s[d.pos] >= '0' && d.s[d.pos] <= '9' {
		d.pos++
	}
	if start == d.pos {
		return "", fmt.Errorf("malformed mangled identifier %q: expected length at offset %d", d.s, start)
	}
	n, err := strconv.Atoi(d.s[start:d.pos])
	if err != nil {
		return "", fmt.Errorf("malformed mangled identifier %q: %w", d.s, err)
	}
	if n == 0 || d.pos+n > len(d.s) {
		return "", fmt.Errorf("malformed mangled identifier %q: length %d out of range", d.s, n)
	}
	out := d.s[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}
