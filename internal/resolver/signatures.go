package resolver

import (
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/mangle"
	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/types"
)

// Signature describes a declared function or method.
type Signature struct {
	Name    string
	Params  []types.Type
	Return  types.Type
	Class   string // owning class of a method
	Mangled string
	Pos     position.Position
}

// IsMethod reports whether the signature belongs to a class.
func (s *Signature) IsMethod() bool { return s.Class != "" }

func (s *Signature) String() string {
	return mangle.Signature{Name: s.Name, Params: s.Params, Class: s.Class}.String()
}

// SignatureTable maps mangled identifiers to signatures.
type SignatureTable struct {
	byMangled map[string]*Signature
	order     []*Signature
}

// NewSignatureTable creates an empty table.
func NewSignatureTable() *SignatureTable {
	return &SignatureTable{byMangled: make(map[string]*Signature)}
}

// Register mangles sig and records it. Two signatures that mangle to the same
// identifier are a redefinition.
func (st *SignatureTable) Register(sig Signature) (*Signature, error) {
	if !types.IsIdentifierText(sig.Name) {
		return nil, errors.InvalidIdentifier(sig.Name).At(sig.Pos)
	}
	sig.Mangled = mangle.Signature{Name: sig.Name, Params: sig.Params, Class: sig.Class}.Mangle()
	if _, exists := st.byMangled[sig.Mangled]; exists {
		return nil, errors.RedefinedFunction(sig.String(), sig.Mangled).At(sig.Pos)
	}
	s := &sig
	st.byMangled[sig.Mangled] = s
	st.order = append(st.order, s)
	return s, nil
}

// Lookup returns the signature registered under a mangled identifier.
func (st *SignatureTable) Lookup(mangled string) (*Signature, bool) {
	s, ok := st.byMangled[mangled]
	return s, ok
}

// Function resolves a call of a free function by its exact argument types.
func (st *SignatureTable) Function(name string, args []types.Type) (*Signature, error) {
	if s, ok := st.byMangled[mangle.Function(name, args)]; ok {
		return s, nil
	}
	return nil, errors.UndeclaredFunction(mangle.Signature{Name: name, Params: args}.String())
}

// Method resolves a method call on a receiver of class type. The receiver's class
// is searched first, then each superclass in turn; the returned signature's Class
// names the class that declared the method.
func (st *SignatureTable) Method(classes *ClassTable, receiver types.Type, name string, args []types.Type) (*Signature, error) {
	if !classes.IsClass(string(receiver)) {
		return nil, errors.NotAClass(string(receiver))
	}
	for c := string(receiver); c != ""; c = classes.Superclass(c) {
		if s, ok := st.byMangled[mangle.Method(c, name, args)]; ok {
			return s, nil
		}
	}
	return nil, errors.UndeclaredMethod(mangle.Signature{Name: name, Params: args}.String(), string(receiver))
}

// All returns every signature in registration order.
func (st *SignatureTable) All() []*Signature {
	return st.order
}
