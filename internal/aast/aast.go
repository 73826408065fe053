// Package aast defines the analyzed abstract syntax tree consumed by the koberic
// translator.
//
// The tree is produced by the external front-end after parsing, import resolution
// and name analysis. Node is a closed set: only the variants declared in this
// package implement it, so a type switch over Node with a default branch that
// reports the unexpected variant covers every case.
package aast

import (
	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/types"
)

// NodeType tags every node variant.
type NodeType int

const (
	NodeScope NodeType = iota
	NodeConstruct
	NodeFunction
	NodeClass
	NodeFunCall
	NodeLiteral
	NodeDeclaration
	NodeOperator
	NodeCast
	NodeVariable
	NodeMemberAccess
)

var nodeTypeNames = [...]string{
	NodeScope:        "Scope",
	NodeConstruct:    "Construct",
	NodeFunction:     "Function",
	NodeClass:        "Class",
	NodeFunCall:      "FunCall",
	NodeLiteral:      "Literal",
	NodeDeclaration:  "Declaration",
	NodeOperator:     "Operator",
	NodeCast:         "Cast",
	NodeVariable:     "Variable",
	NodeMemberAccess: "MemberAccess",
}

func (t NodeType) String() string {
	if int(t) >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Unknown"
}

// Node is the base interface for all analyzed nodes.
type Node interface {
	// NodeType returns the variant tag.
	NodeType() NodeType
	// Type returns the semantic type recorded by the analyzer, or types.None when
	// the type is only known once the enclosing scope is translated.
	Type() types.Type
	// Position returns where the node starts in the source.
	Position() position.Position
	aastNode()
}

// Meta is embedded in every node.
type Meta struct {
	Pos position.Position
	Typ types.Type
}

func (m *Meta) Type() types.Type            { return m.Typ }
func (m *Meta) Position() position.Position { return m.Pos }
func (m *Meta) aastNode()                   {}

// Scope is an ordered block of statements.
type Scope struct {
	Meta
	Body []Node
}

// ConstructKind selects a control construct.
type ConstructKind int

const (
	ConstructIf ConstructKind = iota
	ConstructElif
	ConstructWhile
	ConstructElse
)

func (k ConstructKind) String() string {
	switch k {
	case ConstructIf:
		return "if"
	case ConstructElif:
		return "elif"
	case ConstructWhile:
		return "while"
	case ConstructElse:
		return "else"
	default:
		return "construct"
	}
}

// HasCondition reports whether the construct takes a condition.
func (k ConstructKind) HasCondition() bool { return k != ConstructElse }

// Construct is an if, elif, while or else block.
type Construct struct {
	Meta
	Kind ConstructKind
	Cond Node // nil for else
	Body *Scope
}

// Param is a named, typed slot: a function parameter, a class attribute.
type Param struct {
	Name string     `json:"name"`
	Type types.Type `json:"type"`
}

// Function is a function or, when Class is set, a method definition.
type Function struct {
	Meta
	Name   string
	Params []Param
	Class  string
	Body   *Scope
}

// Return is the declared return type.
func (f *Function) Return() types.Type { return f.Typ }

// ParamTypes returns the ordered parameter types.
func (f *Function) ParamTypes() []types.Type {
	out := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

// Class is a class definition with an optional superclass.
type Class struct {
	Meta
	Name       string
	Super      string
	Attributes []Param
}

// FunCall is a call of a function or, when Object is set, of a method on Object.
// Calls whose name is a reserved operator are lowered as operators.
type FunCall struct {
	Meta
	Name   string
	Args   []Node
	Object Node
}

// Literal is a constant. Character literals hold the bare character; string
// literals keep their surrounding quotes.
type Literal struct {
	Meta
	Value string
}

// Declaration introduces a variable, optionally initialized.
type Declaration struct {
	Meta
	Name string
	Init Node
}

// Operator is an application of a reserved operator name.
type Operator struct {
	Meta
	Op   string
	Args []Node
}

// Cast converts Value to the node's type.
type Cast struct {
	Meta
	Value Node
}

// Target is the destination type of the cast.
func (c *Cast) Target() types.Type { return c.Typ }

// Variable references a variable, a parameter or self. In cast and sizeof
// arguments it may also name a type.
type Variable struct {
	Meta
	Name string
}

// MemberAccess is a chained attribute access Base.Chain[0].Chain[1]...
type MemberAccess struct {
	Meta
	Base  Node
	Chain []string
}

func (*Scope) NodeType() NodeType        { return NodeScope }
func (*Construct) NodeType() NodeType    { return NodeConstruct }
func (*Function) NodeType() NodeType     { return NodeFunction }
func (*Class) NodeType() NodeType        { return NodeClass }
func (*FunCall) NodeType() NodeType      { return NodeFunCall }
func (*Literal) NodeType() NodeType      { return NodeLiteral }
func (*Declaration) NodeType() NodeType  { return NodeDeclaration }
func (*Operator) NodeType() NodeType     { return NodeOperator }
func (*Cast) NodeType() NodeType         { return NodeCast }
func (*Variable) NodeType() NodeType     { return NodeVariable }
func (*MemberAccess) NodeType() NodeType { return NodeMemberAccess }

// Program is one analyzed translation unit.
type Program struct {
	Version   string
	Libraries []string
	Classes   []*Class
	Globals   []*Declaration
	Functions []*Function
}

// ClassNames returns class names in class order.
func (p *Program) ClassNames() []string {
	names := make([]string, len(p.Classes))
	for i, c := range p.Classes {
		names[i] = c.Name
	}
	return names
}

// Walk traverses the tree rooted at n depth-first, calling fn for every node.
// Children are skipped when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Scope:
		for _, s := range n.Body {
			Walk(s, fn)
		}
	case *Construct:
		if n.Cond != nil {
			Walk(n.Cond, fn)
		}
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *Function:
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *FunCall:
		if n.Object != nil {
			Walk(n.Object, fn)
		}
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Declaration:
		if n.Init != nil {
			Walk(n.Init, fn)
		}
	case *Operator:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Cast:
		Walk(n.Value, fn)
	case *MemberAccess:
		Walk(n.Base, fn)
	case *Class, *Literal, *Variable:
	}
}
