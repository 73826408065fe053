// Package layout computes the C struct layout of every class.
// A derived class begins with the complete attribute list of its superclass, so a
// pointer to the derived struct is also a valid pointer to the base struct. This
// compatible-prefix property is what makes class-hierarchy casts sound, and the
// Calculator enforces it as each class is added.
package layout

import (
	"fmt"

	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

// Field is one attribute slot of a class struct.
type Field struct {
	Name   string     // Attribute name
	Type   types.Type // Source type of the attribute
	Owner  string     // Class that declared the attribute
	Offset int64      // Offset from struct start on an LP64 target
	Size   int64      // Size of the field
	Align  int64      // Required alignment
}

// ClassLayout represents the struct emitted for a class
type ClassLayout struct {
	Name       string
	Super      string  // Empty for root classes
	Fields     []Field // Inherited fields first, in declaration order
	TotalSize  int64   // Total struct size including padding
	Alignment  int64
	PaddingMap []PaddingInfo
}

// PaddingInfo represents padding bytes inserted for alignment
type PaddingInfo struct {
	Offset int64
	Size   int64
	Reason string
}

// Attribute is an (attribute-name, type) pair as declared in a class body.
type Attribute struct {
	Name string
	Type types.Type
}

// Calculator lays out classes in class order.
type Calculator struct {
	PointerSize int64 // 8 on LP64 targets
	declared    map[string]bool
	layouts     map[string]*ClassLayout
}

// NewCalculator creates a calculator that knows the names of every class in the
// program, so that pointer attributes may refer to classes defined later.
func NewCalculator(declared []string) *Calculator {
	lc := &Calculator{
		PointerSize: 8,
		declared:    make(map[string]bool, len(declared)),
		layouts:     make(map[string]*ClassLayout, len(declared)),
	}
	for _, name := range declared {
		lc.declared[name] = true
	}
	return lc
}

// Add computes the layout of class name. The superclass and every class held by
// value must already have been added.
func (lc *Calculator) Add(name, super string, attrs []Attribute) (*ClassLayout, error) {
	if !types.IsIdentifier(name) {
		return nil, errors.InvalidIdentifier(name)
	}
	if _, exists := lc.layouts[name]; exists {
		return nil, errors.RedefinedClass(name)
	}

	var fields []Field
	if super != "" {
		base, ok := lc.layouts[super]
		switch {
		case ok:
			fields = append(fields, base.Fields...)
		case super == name:
			return nil, errors.InvalidLayout(name, "a class cannot inherit from itself")
		case lc.declared[super]:
			return nil, errors.InvalidLayout(name, fmt.Sprintf("superclass %s must be defined before %s", super, name))
		default:
			return nil, errors.UndefinedClass(super)
		}
	}

	for _, attr := range attrs {
		if !types.IsIdentifier(attr.Name) {
			return nil, errors.InvalidIdentifier(attr.Name)
		}
		for _, f := range fields {
			if f.Name == attr.Name {
				return nil, errors.RedefinedAttribute(attr.Name, name)
			}
		}
		size, align, err := lc.sizeOf(name, attr.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: attr.Name, Type: attr.Type, Owner: name, Size: size, Align: align})
	}

	cl := lc.place(name, super, fields)
	lc.layouts[name] = cl
	return cl, nil
}

func (lc *Calculator) sizeOf(class string, t types.Type) (int64, int64, error) {
	if t.IsPointer() {
		if t.Elem().Kind() == types.KindVoid {
			return 0, 0, errors.UndefinedType(string(t))
		}
		if t.Elem().Kind() == types.KindClass && !lc.declared[string(t.Elem())] {
			return 0, 0, errors.UndefinedClass(string(t.Elem()))
		}
		return lc.PointerSize, lc.PointerSize, nil
	}
	switch t.Kind() {
	case types.KindInt, types.KindUint, types.KindNum:
		return 8, 8, nil
	case types.KindChar, types.KindUchar:
		return 1, 1, nil
	case types.KindClass:
		if string(t) == class {
			return 0, 0, errors.InvalidLayout(class, "a class cannot contain itself by value")
		}
		inner, ok := lc.layouts[string(t)]
		if !ok {
			if lc.declared[string(t)] {
				return 0, 0, errors.InvalidLayout(class,
					fmt.Sprintf("%s is held by value and must be defined before %s", t, class))
			}
			return 0, 0, errors.UndefinedClass(string(t))
		}
		return inner.TotalSize, inner.Alignment, nil
	default:
		return 0, 0, errors.UndefinedType(string(t))
	}
}

// place assigns offsets the way a C compiler does for an LP64 target.
func (lc *Calculator) place(name, super string, fields []Field) *ClassLayout {
	var padding []PaddingInfo
	currentOffset := int64(0)
	maxAlignment := int64(1)

	for i := range fields {
		f := &fields[i]
		if f.Align <= 0 {
			f.Align = 1
		}
		if f.Align > maxAlignment {
			maxAlignment = f.Align
		}
		aligned := alignUp(currentOffset, f.Align)
		if aligned > currentOffset {
			padding = append(padding, PaddingInfo{
				Offset: currentOffset,
				Size:   aligned - currentOffset,
				Reason: fmt.Sprintf("alignment for field %s", f.Name),
			})
		}
		f.Offset = aligned
		currentOffset = aligned + f.Size
	}

	totalSize := alignUp(currentOffset, maxAlignment)
	if totalSize > currentOffset {
		padding = append(padding, PaddingInfo{
			Offset: currentOffset,
			Size:   totalSize - currentOffset,
			Reason: "struct alignment",
		})
	}

	return &ClassLayout{
		Name:       name,
		Super:      super,
		Fields:     fields,
		TotalSize:  totalSize,
		Alignment:  maxAlignment,
		PaddingMap: padding,
	}
}

// alignUp rounds up to the next multiple of alignment
func alignUp(value, alignment int64) int64 {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) & ^(alignment - 1)
}

// Field looks up an attribute by name, including inherited ones.
func (cl *ClassLayout) Field(name string) (Field, bool) {
	for _, f := range cl.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Own returns the fields declared by the class itself.
func (cl *ClassLayout) Own() []Field {
	var own []Field
	for _, f := range cl.Fields {
		if f.Owner == cl.Name {
			own = append(own, f)
		}
	}
	return own
}

// HasPrefix reports whether base's fields form a prefix of cl's fields with
// identical names, types and offsets.
func (cl *ClassLayout) HasPrefix(base *ClassLayout) bool {
	if len(base.Fields) > len(cl.Fields) {
		return false
	}
	for i, f := range base.Fields {
		g := cl.Fields[i]
		if f.Name != g.Name || f.Type != g.Type || f.Offset != g.Offset {
			return false
		}
	}
	return true
}

// GetPaddingBytes returns the total number of padding bytes in the struct
func (cl *ClassLayout) GetPaddingBytes() int64 {
	var total int64
	for _, pad := range cl.PaddingMap {
		total += pad.Size
	}
	return total
}

func (cl *ClassLayout) String() string {
	return fmt.Sprintf("Struct %s (%d fields, %d bytes, %d padding)",
		cl.Name, len(cl.Fields), cl.TotalSize, cl.GetPaddingBytes())
}
