package aast

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/types"
)

// wireNode is the JSON shape the front-end writes for every node. Only the fields
// relevant to the node kind are set.
type wireNode struct {
	Node       string            `json:"node"`
	Pos        position.Position `json:"pos"`
	Type       types.Type        `json:"type"`
	Name       string            `json:"name"`
	Value      string            `json:"value"`
	Op         string            `json:"op"`
	Construct  string            `json:"construct"`
	Super      string            `json:"super"`
	Class      string            `json:"class"`
	Chain      []string          `json:"chain"`
	Params     []Param           `json:"params"`
	Attributes []Param           `json:"attributes"`
	Args       []*wireNode       `json:"args"`
	Body       []*wireNode       `json:"body"`
	Cond       *wireNode         `json:"cond"`
	Init       *wireNode         `json:"init"`
	Object     *wireNode         `json:"object"`
	Base       *wireNode         `json:"base"`
	Operand    *wireNode         `json:"operand"`
}

type wireProgram struct {
	Version   string      `json:"version"`
	Libraries []string    `json:"libraries"`
	Classes   []*wireNode `json:"classes"`
	Globals   []*wireNode `json:"globals"`
	Functions []*wireNode `json:"functions"`
}

// Decode reads a JSON encoded program. Positions without a file name are
// attributed to filename.
func Decode(r io.Reader, filename string) (*Program, error) {
	var wp wireProgram
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wp); err != nil {
		return nil, err
	}

	d := &decoder{filename: filename}
	prog := &Program{Version: wp.Version, Libraries: wp.Libraries}

	for _, w := range wp.Classes {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		c, ok := n.(*Class)
		if !ok {
			return nil, d.unexpected(w, "class")
		}
		prog.Classes = append(prog.Classes, c)
	}
	for _, w := range wp.Globals {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		g, ok := n.(*Declaration)
		if !ok {
			return nil, d.unexpected(w, "global declaration")
		}
		prog.Globals = append(prog.Globals, g)
	}
	for _, w := range wp.Functions {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		f, ok := n.(*Function)
		if !ok {
			return nil, d.unexpected(w, "function")
		}
		prog.Functions = append(prog.Functions, f)
	}
	return prog, nil
}

type decoder struct {
	filename string
}

func (d *decoder) meta(w *wireNode) Meta {
	pos := w.Pos
	if pos.Filename == "" && d.filename != "" {
		pos = pos.WithFilename(d.filename)
	}
	return Meta{Pos: pos, Typ: w.Type}
}

func (d *decoder) unexpected(w *wireNode, want string) error {
	return fmt.Errorf("%s: expected %s, got %q node", d.meta(w).Pos, want, w.Node)
}

func (d *decoder) optional(w *wireNode) (Node, error) {
	if w == nil {
		return nil, nil
	}
	return d.node(w)
}

func (d *decoder) list(ws []*wireNode) ([]Node, error) {
	out := make([]Node, 0, len(ws))
	for _, w := range ws {
		n, err := d.node(w)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (d *decoder) scope(w *wireNode) (*Scope, error) {
	body, err := d.list(w.Body)
	if err != nil {
		return nil, err
	}
	return &Scope{Meta: d.meta(w), Body: body}, nil
}

func (d *decoder) node(w *wireNode) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("%s: missing node", d.filename)
	}
	m := d.meta(w)

	switch w.Node {
	case "Scope":
		s, err := d.scope(w)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "Construct":
		kind, ok := constructKinds[w.Construct]
		if !ok {
			return nil, fmt.Errorf("%s: unknown construct %q", m.Pos, w.Construct)
		}
		cond, err := d.optional(w.Cond)
		if err != nil {
			return nil, err
		}
		if kind.HasCondition() && cond == nil {
			return nil, fmt.Errorf("%s: %s without a condition", m.Pos, kind)
		}
		body, err := d.scope(w)
		if err != nil {
			return nil, err
		}
		return &Construct{Meta: m, Kind: kind, Cond: cond, Body: body}, nil

	case "Function":
		body, err := d.scope(w)
		if err != nil {
			return nil, err
		}
		return &Function{Meta: m, Name: w.Name, Params: w.Params, Class: w.Class, Body: body}, nil

	case "Class":
		return &Class{Meta: m, Name: w.Name, Super: w.Super, Attributes: w.Attributes}, nil

	case "FunCall", "Funcall":
		args, err := d.list(w.Args)
		if err != nil {
			return nil, err
		}
		obj, err := d.optional(w.Object)
		if err != nil {
			return nil, err
		}
		return &FunCall{Meta: m, Name: w.Name, Args: args, Object: obj}, nil

	case "Literal", "Value":
		return &Literal{Meta: m, Value: w.Value}, nil

	case "Declaration":
		init, err := d.optional(w.Init)
		if err != nil {
			return nil, err
		}
		return &Declaration{Meta: m, Name: w.Name, Init: init}, nil

	case "Operator":
		args, err := d.list(w.Args)
		if err != nil {
			return nil, err
		}
		return &Operator{Meta: m, Op: w.Op, Args: args}, nil

	case "Cast":
		v, err := d.node(w.Operand)
		if err != nil {
			return nil, err
		}
		return &Cast{Meta: m, Value: v}, nil

	case "Variable":
		return &Variable{Meta: m, Name: w.Name}, nil

	case "MemberAccess":
		base, err := d.node(w.Base)
		if err != nil {
			return nil, err
		}
		if len(w.Chain) == 0 {
			return nil, fmt.Errorf("%s: member access without attributes", m.Pos)
		}
		return &MemberAccess{Meta: m, Base: base, Chain: w.Chain}, nil

	default:
		return nil, fmt.Errorf("%s: unknown node type %q", m.Pos, w.Node)
	}
}

var constructKinds = map[string]ConstructKind{
	"if":    ConstructIf,
	"elif":  ConstructElif,
	"while": ConstructWhile,
	"else":  ConstructElse,
}
