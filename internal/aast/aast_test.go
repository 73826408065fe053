package aast

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/koberi-lang/koberic/internal/types"
)

const pointProgram = `{
  "version": "1.0.0",
  "libraries": ["ctype"],
  "classes": [
    {"node": "Class", "name": "Point", "pos": {"line": 1, "col": 1},
     "attributes": [{"name": "x", "type": "int"}, {"name": "y", "type": "int"}]}
  ],
  "globals": [
    {"node": "Declaration", "name": "counter", "type": "uint",
     "init": {"node": "Literal", "value": "0", "type": "uint"}}
  ],
  "functions": [
    {"node": "Function", "name": "main", "type": "int", "pos": {"line": 3, "col": 1},
     "body": [
       {"node": "Declaration", "name": "p", "type": "Point"},
       {"node": "Operator", "op": "=", "args": [
         {"node": "MemberAccess", "base": {"node": "Variable", "name": "p"}, "chain": ["x"]},
         {"node": "Literal", "value": "5", "type": "int"}]},
       {"node": "Construct", "construct": "if",
        "cond": {"node": "Variable", "name": "counter"},
        "body": [{"node": "FunCall", "name": "print", "args": [
          {"node": "Cast", "type": "num", "operand": {"node": "Variable", "name": "counter"}}]}]},
       {"node": "Operator", "op": "return", "args": [{"node": "Literal", "value": "0", "type": "int"}]}
     ]}
  ]
}`

func TestDecodeProgram(t *testing.T) {
	prog, err := Decode(strings.NewReader(pointProgram), "point.aast.json")
	be.Err(t, err, nil)

	be.Equal(t, prog.Version, "1.0.0")
	be.Equal(t, prog.Libraries, []string{"ctype"})
	be.Equal(t, prog.ClassNames(), []string{"Point"})
	be.Equal(t, len(prog.Classes[0].Attributes), 2)
	be.Equal(t, prog.Classes[0].Attributes[1], Param{Name: "y", Type: types.Int})
	be.Equal(t, prog.Classes[0].Position().String(), "point.aast.json:1:1")

	be.Equal(t, len(prog.Globals), 1)
	be.Equal(t, prog.Globals[0].Type(), types.Uint)
	lit, ok := prog.Globals[0].Init.(*Literal)
	be.True(t, ok)
	be.Equal(t, lit.Value, "0")

	main := prog.Functions[0]
	be.Equal(t, main.Return(), types.Int)
	be.Equal(t, len(main.ParamTypes()), 0)
	be.Equal(t, len(main.Body.Body), 4)

	assign, ok := main.Body.Body[1].(*Operator)
	be.True(t, ok)
	be.Equal(t, assign.Op, "=")
	access, ok := assign.Args[0].(*MemberAccess)
	be.True(t, ok)
	be.Equal(t, access.Chain, []string{"x"})

	construct, ok := main.Body.Body[2].(*Construct)
	be.True(t, ok)
	be.Equal(t, construct.Kind, ConstructIf)
	call := construct.Body.Body[0].(*FunCall)
	cast := call.Args[0].(*Cast)
	be.Equal(t, cast.Target(), types.Num)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad json", `{"functions": [`, "unexpected EOF"},
		{"unknown node", `{"functions": [{"node": "Lambda"}]}`, `unknown node type "Lambda"`},
		{"wrong slot", `{"classes": [{"node": "Variable", "name": "x"}]}`, "expected class"},
		{"unknown construct", `{"functions": [{"node": "Function", "body": [{"node": "Construct", "construct": "for"}]}]}`, `unknown construct "for"`},
		{"if without condition", `{"functions": [{"node": "Function", "body": [{"node": "Construct", "construct": "if"}]}]}`, "if without a condition"},
		{"empty member chain", `{"functions": [{"node": "Function", "body": [{"node": "MemberAccess", "base": {"node": "Variable", "name": "p"}}]}]}`, "member access without attributes"},
		{"cast without operand", `{"functions": [{"node": "Function", "body": [{"node": "Cast", "type": "int"}]}]}`, "missing node"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), "x.aast.json")
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tt.want))
		})
	}
}

func TestNodeTypes(t *testing.T) {
	nodes := []Node{
		&Scope{}, &Construct{}, &Function{}, &Class{}, &FunCall{}, &Literal{},
		&Declaration{}, &Operator{}, &Cast{}, &Variable{}, &MemberAccess{},
	}
	for i, n := range nodes {
		be.Equal(t, n.NodeType(), NodeType(i))
	}
	be.Equal(t, NodeMemberAccess.String(), "MemberAccess")
	be.Equal(t, NodeType(99).String(), "Unknown")
	be.Equal(t, ConstructElif.String(), "elif")
	be.True(t, !ConstructElse.HasCondition())
}

func TestWalk(t *testing.T) {
	prog, err := Decode(strings.NewReader(pointProgram), "")
	be.Err(t, err, nil)

	counts := map[NodeType]int{}
	Walk(prog.Functions[0], func(n Node) bool {
		counts[n.NodeType()]++
		return true
	})
	be.Equal(t, counts[NodeLiteral], 2)
	be.Equal(t, counts[NodeVariable], 3)
	be.Equal(t, counts[NodeScope], 2)

	// Pruning at constructs hides the condition and body.
	vars := 0
	Walk(prog.Functions[0], func(n Node) bool {
		if n.NodeType() == NodeVariable {
			vars++
		}
		return n.NodeType() != NodeConstruct
	})
	be.Equal(t, vars, 1)
}
