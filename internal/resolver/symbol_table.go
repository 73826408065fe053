// Scope chain management for the koberic translator.
// Variables become visible at their declaration and stay visible to every later
// statement of the same or a nested scope.

package resolver

import (
	"fmt"
	"strings"

	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/types"
)

// SelfName is the implicit receiver parameter of every method.
const SelfName = "self"

// SymbolKind represents the kind of symbol.
type SymbolKind int

const (
	SymbolKindGlobal SymbolKind = iota
	SymbolKindLocal
	SymbolKindParameter
	SymbolKindSelf
)

// String returns the string representation of SymbolKind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolKindGlobal:
		return "global"
	case SymbolKindLocal:
		return "local"
	case SymbolKindParameter:
		return "parameter"
	case SymbolKindSelf:
		return "self"
	default:
		return "unknown"
	}
}

// Symbol represents a named variable.
type Symbol struct {
	Name string
	Type types.Type
	Kind SymbolKind
	Pos  position.Position
}

// ScopeID represents a unique scope identifier.
type ScopeID uint64

// ScopeKind represents the kind of scope.
type ScopeKind int

const (
	ScopeKindGlobal ScopeKind = iota
	ScopeKindFunction
	ScopeKindBlock
)

// String returns the string representation of ScopeKind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeKindGlobal:
		return "global"
	case ScopeKindFunction:
		return "function"
	case ScopeKindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope.
type Scope struct {
	Symbols  map[string]*Symbol
	ParentID *ScopeID
	Name     string
	ID       ScopeID
	Kind     ScopeKind
	Depth    int
}

// SymbolTable owns the scope chain of one compilation.
type SymbolTable struct {
	scopes       map[ScopeID]*Scope
	scopeCounter ScopeID
	rootScopeID  ScopeID
	currentScope ScopeID
}

// NewSymbolTable creates a new symbol table holding only the global scope.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		scopes: make(map[ScopeID]*Scope),
	}

	st.rootScopeID = st.createScope(ScopeKindGlobal, "global", nil)
	st.currentScope = st.rootScopeID

	return st
}

func (st *SymbolTable) createScope(kind ScopeKind, name string, parentID *ScopeID) ScopeID {
	st.scopeCounter++
	scopeID := st.scopeCounter

	scope := &Scope{
		ID:       scopeID,
		Kind:     kind,
		Name:     name,
		ParentID: parentID,
		Symbols:  make(map[string]*Symbol),
	}

	if parentID != nil {
		if parent, exists := st.scopes[*parentID]; exists {
			scope.Depth = parent.Depth + 1
		}
	}

	st.scopes[scopeID] = scope

	return scopeID
}

// EnterScope opens a child of the current scope and makes it current.
func (st *SymbolTable) EnterScope(kind ScopeKind, name string) ScopeID {
	parent := st.currentScope
	st.currentScope = st.createScope(kind, name, &parent)
	return st.currentScope
}

// ExitScope discards the current scope and returns to its parent.
func (st *SymbolTable) ExitScope() error {
	currentScope := st.scopes[st.currentScope]
	if currentScope.ParentID == nil {
		return fmt.Errorf("cannot exit root scope")
	}

	delete(st.scopes, st.currentScope)
	st.currentScope = *currentScope.ParentID

	return nil
}

// Define adds a symbol to the current scope. Shadowing an outer name is allowed;
// defining the same name twice in one scope is not.
func (st *SymbolTable) Define(symbol *Symbol) error {
	if !types.IsIdentifier(symbol.Name) && symbol.Kind != SymbolKindSelf {
		return errors.InvalidIdentifier(symbol.Name).At(symbol.Pos)
	}

	currentScope := st.scopes[st.currentScope]
	if _, exists := currentScope.Symbols[symbol.Name]; exists {
		return errors.RedefinedVariable(symbol.Name).At(symbol.Pos)
	}

	currentScope.Symbols[symbol.Name] = symbol

	return nil
}

// Lookup searches the scope chain from the current scope outward.
func (st *SymbolTable) Lookup(name string) (*Symbol, error) {
	for id := &st.currentScope; id != nil; {
		scope := st.scopes[*id]
		if sym, ok := scope.Symbols[name]; ok {
			return sym, nil
		}
		id = scope.ParentID
	}

	return nil, errors.UndefinedVariable(name)
}

// Current returns the innermost scope.
func (st *SymbolTable) Current() *Scope {
	return st.scopes[st.currentScope]
}

// Depth returns the nesting depth of the current scope; the global scope has depth 0.
func (st *SymbolTable) Depth() int {
	return st.scopes[st.currentScope].Depth
}

// String methods for debugging.
func (s *Symbol) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Symbol{%s", s.Name))
	parts = append(parts, fmt.Sprintf("kind=%s", s.Kind))
	parts = append(parts, fmt.Sprintf("type=%s", s.Type))

	return strings.Join(parts, ", ") + "}"
}

func (s *Scope) String() string {
	return fmt.Sprintf("Scope{%s, kind=%s, symbols=%d, depth=%d}",
		s.Name, s.Kind, len(s.Symbols), s.Depth)
}
