package resolver

import (
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/layout"
	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/types"
)

// Class is a registered class together with its computed layout.
type Class struct {
	Name   string
	Super  string
	Layout *layout.ClassLayout
	Pos    position.Position
}

// ClassTable maps class names to classes and remembers class order.
type ClassTable struct {
	calc    *layout.Calculator
	classes map[string]*Class
	order   []*Class
}

// NewClassTable creates a table for a program that declares the given class names.
// Pointer attributes may refer to any of them; by-value attributes and superclasses
// must be added first.
func NewClassTable(declared []string) *ClassTable {
	return &ClassTable{
		calc:    layout.NewCalculator(declared),
		classes: make(map[string]*Class, len(declared)),
	}
}

// Add registers a class. Attributes are appended to the superclass layout, and the
// result is verified to start with the superclass layout.
func (ct *ClassTable) Add(name, super string, attrs []layout.Attribute, pos position.Position) (*Class, error) {
	cl, err := ct.calc.Add(name, super, attrs)
	if err != nil {
		if se, ok := err.(*errors.StandardError); ok {
			se.At(pos)
		}
		return nil, err
	}
	if super != "" {
		base := ct.classes[super].Layout
		if !cl.HasPrefix(base) {
			return nil, errors.InvalidLayout(name, "layout does not begin with the layout of "+super).At(pos)
		}
	}

	class := &Class{Name: name, Super: super, Layout: cl, Pos: pos}
	ct.classes[name] = class
	ct.order = append(ct.order, class)
	return class, nil
}

// Lookup returns the class called name.
func (ct *ClassTable) Lookup(name string) (*Class, bool) {
	c, ok := ct.classes[name]
	return c, ok
}

// IsClass reports whether name denotes a registered class.
func (ct *ClassTable) IsClass(name string) bool {
	_, ok := ct.classes[name]
	return ok
}

// Order returns the classes in declaration order.
func (ct *ClassTable) Order() []*Class {
	return ct.order
}

// Superclass returns the direct superclass of name, or "".
func (ct *ClassTable) Superclass(name string) string {
	if c, ok := ct.classes[name]; ok {
		return c.Super
	}
	return ""
}

// HasSuperclass reports whether ancestor appears in the superclass chain of class.
func (ct *ClassTable) HasSuperclass(class, ancestor string) bool {
	for c := ct.Superclass(class); c != ""; c = ct.Superclass(c) {
		if c == ancestor {
			return true
		}
	}
	return false
}

// IsRelated reports whether a and b are distinct classes related by inheritance in
// either direction.
func (ct *ClassTable) IsRelated(a, b string) bool {
	return ct.HasSuperclass(a, b) || ct.HasSuperclass(b, a)
}

// Attribute resolves the type of an attribute of class, including inherited ones.
func (ct *ClassTable) Attribute(class types.Type, name string) (types.Type, error) {
	c, ok := ct.classes[string(class)]
	if !ok {
		return types.None, errors.NotAClass(string(class))
	}
	f, ok := c.Layout.Field(name)
	if !ok {
		return types.None, errors.NoSuchMember(name, c.Name)
	}
	return f.Type, nil
}

// Known reports whether t names a builtin type or a registered class, in either
// value or pointer form.
func (ct *ClassTable) Known(t types.Type) bool {
	switch t.Kind() {
	case types.KindInvalid:
		return false
	case types.KindClass:
		return ct.IsClass(string(t.Elem()))
	case types.KindVoid:
		return !t.IsPointer()
	default:
		return true
	}
}
