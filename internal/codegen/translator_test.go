package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/koberi-lang/koberic/internal/aast"
	"github.com/koberi-lang/koberic/internal/cli"
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

func lit(v string, t types.Type) *aast.Literal {
	return &aast.Literal{Meta: aast.Meta{Typ: t}, Value: v}
}

func ref(name string) *aast.Variable { return &aast.Variable{Name: name} }

func call(name string, args ...aast.Node) *aast.FunCall {
	return &aast.FunCall{Name: name, Args: args}
}

func method(obj aast.Node, name string, args ...aast.Node) *aast.FunCall {
	return &aast.FunCall{Name: name, Args: args, Object: obj}
}

func op(o string, args ...aast.Node) *aast.Operator {
	return &aast.Operator{Op: o, Args: args}
}

func decl(name string, t types.Type, init aast.Node) *aast.Declaration {
	return &aast.Declaration{Meta: aast.Meta{Typ: t}, Name: name, Init: init}
}

func member(base aast.Node, chain ...string) *aast.MemberAccess {
	return &aast.MemberAccess{Base: base, Chain: chain}
}

func construct(kind aast.ConstructKind, cond aast.Node, body ...aast.Node) *aast.Construct {
	return &aast.Construct{Kind: kind, Cond: cond, Body: &aast.Scope{Body: body}}
}

func fn(name string, ret types.Type, params []aast.Param, body ...aast.Node) *aast.Function {
	return &aast.Function{Meta: aast.Meta{Typ: ret}, Name: name, Params: params, Body: &aast.Scope{Body: body}}
}

func class(name, super string, attrs ...aast.Param) *aast.Class {
	return &aast.Class{Name: name, Super: super, Attributes: attrs}
}

func mainReturning(body ...aast.Node) *aast.Function {
	return fn("main", types.Int, nil, append(body, op("return", lit("0", types.Int)))...)
}

func translate(t *testing.T, prog *aast.Program) (string, error) {
	t.Helper()
	var log bytes.Buffer
	return New(prog, Options{Logger: cli.NewBufferedLogger(&log, false, true)}).Translate()
}

func mustTranslate(t *testing.T, prog *aast.Program) string {
	t.Helper()
	out, err := translate(t, prog)
	if err != nil {
		t.Fatalf("Translate() failed: %v", err)
	}
	return out
}

const pointOutput = `/* Libraries */

#include <stdio.h>
#include <stdlib.h>
#include <stdint.h>
#include <time.h>
#include <math.h>
#include <string.h>

/* Typedefs */

typedef double num;
typedef long long ll;
typedef unsigned long long ull;
typedef unsigned char uchar;

/* Classes */

typedef struct Point {
    ll x;
    ll y;
} Point;

/* Global Variables */


/* Function Declarations */

ll _koberic_4main(void);

/* Function Definitions */

ll _koberic_4main(void) {
    Point p;
    p.x = 5;
    printf("%lld", p.x);
    return 0;
}

/* C Main Function */

int main(int argc, const char * argv[]) {
    return _koberic_4main();
}
`

func TestTranslatePoint(t *testing.T) {
	prog := &aast.Program{
		Classes: []*aast.Class{
			class("Point", "", aast.Param{Name: "x", Type: types.Int}, aast.Param{Name: "y", Type: types.Int}),
		},
		Functions: []*aast.Function{
			mainReturning(
				decl("p", "Point", nil),
				op("=", member(ref("p"), "x"), lit("5", types.Int)),
				call("print", member(ref("p"), "x")),
			),
		},
	}

	be.Equal(t, mustTranslate(t, prog), pointOutput)
}

func TestTranslateDecodedProgram(t *testing.T) {
	const input = `{
  "classes": [{"node": "Class", "name": "Point",
    "attributes": [{"name": "x", "type": "int"}, {"name": "y", "type": "int"}]}],
  "functions": [{"node": "Function", "name": "main", "type": "int", "body": [
    {"node": "Declaration", "name": "p", "type": "Point"},
    {"node": "Operator", "op": "=", "args": [
      {"node": "MemberAccess", "base": {"node": "Variable", "name": "p"}, "chain": ["x"]},
      {"node": "Literal", "value": "5", "type": "int"}]},
    {"node": "FunCall", "name": "print", "args": [
      {"node": "MemberAccess", "base": {"node": "Variable", "name": "p"}, "chain": ["x"]}]},
    {"node": "FunCall", "name": "return", "args": [{"node": "Literal", "value": "0", "type": "int"}]}
  ]}]
}`
	prog, err := aast.Decode(strings.NewReader(input), "point.aast.json")
	be.Err(t, err, nil)
	be.Equal(t, mustTranslate(t, prog), pointOutput)
}

func TestOverloadsMangleApart(t *testing.T) {
	params := func(t types.Type) []aast.Param {
		return []aast.Param{{Name: "a", Type: t}, {Name: "b", Type: t}}
	}
	prog := &aast.Program{
		Functions: []*aast.Function{
			fn("add", types.Int, params(types.Int), op("return", op("+", ref("a"), ref("b")))),
			fn("add", types.Num, params(types.Num), op("return", op("+", ref("a"), ref("b")))),
			mainReturning(
				decl("i", types.Int, call("add", lit("1", types.Int), lit("2", types.Int))),
				decl("n", types.Num, call("add", lit("1.5", types.Num), lit("2.5", types.Num))),
			),
		},
	}

	out := mustTranslate(t, prog)
	be.True(t, strings.Contains(out, "ll _koberic_3add_3int_3int(ll a, ll b);\n"))
	be.True(t, strings.Contains(out, "num _koberic_3add_3num_3num(num a, num b);\n"))
	be.True(t, strings.Contains(out, "    return (a + b);\n"))
	be.True(t, strings.Contains(out, "    ll i = _koberic_3add_3int_3int(1, 2);\n"))
	be.True(t, strings.Contains(out, "    num n = _koberic_3add_3num_3num(1.5, 2.5);\n"))
}

func TestTranslateErrors(t *testing.T) {
	point := class("Point", "", aast.Param{Name: "x", Type: types.Int})

	tests := []struct {
		name string
		prog *aast.Program
		code string
	}{
		{
			name: "undeclared function",
			prog: &aast.Program{Functions: []*aast.Function{mainReturning(call("missing"))}},
			code: "UNDECLARED_FUNCTION",
		},
		{
			name: "overload selected by exact types",
			prog: &aast.Program{Functions: []*aast.Function{
				fn("half", types.Num, []aast.Param{{Name: "x", Type: types.Num}}, op("return", op("/", ref("x"), lit("2", types.Num)))),
				mainReturning(call("half", lit("4", types.Int))),
			}},
			code: "UNDECLARED_FUNCTION",
		},
		{
			name: "missing entry",
			prog: &aast.Program{Functions: []*aast.Function{fn("helper", types.Void, nil)}},
			code: "MISSING_ENTRY",
		},
		{
			name: "entry returns void",
			prog: &aast.Program{Functions: []*aast.Function{fn("main", types.Void, nil)}},
			code: "INVALID_ENTRY",
		},
		{
			name: "entry takes parameters",
			prog: &aast.Program{Functions: []*aast.Function{
				fn("main", types.Int, []aast.Param{{Name: "argc", Type: types.Int}}, op("return", ref("argc"))),
			}},
			code: "INVALID_ENTRY",
		},
		{
			name: "redefined function",
			prog: &aast.Program{Functions: []*aast.Function{mainReturning(), mainReturning()}},
			code: "REDEFINED_FUNCTION",
		},
		{
			name: "undefined variable",
			prog: &aast.Program{Functions: []*aast.Function{mainReturning(call("print", ref("nope")))}},
			code: "UNDEFINED_VARIABLE",
		},
		{
			name: "variable redefined in one scope",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("x", types.Int, nil), decl("x", types.Num, nil)),
			}},
			code: "REDEFINED_VARIABLE",
		},
		{
			name: "declaration type mismatch",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("x", types.Int, lit(`"hi"`, types.String))),
			}},
			code: "TYPE_MISMATCH",
		},
		{
			name: "bare literal statement",
			prog: &aast.Program{Functions: []*aast.Function{mainReturning(lit("1", types.Int))}},
			code: "INVALID_STATEMENT",
		},
		{
			name: "non numeric condition",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(construct(aast.ConstructIf, lit(`"yes"`, types.String))),
			}},
			code: "NON_NUMERIC_CONDITION",
		},
		{
			name: "else without if",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(construct(aast.ConstructElse, nil)),
			}},
			code: "MISPLACED_CONSTRUCT",
		},
		{
			name: "elif after while",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(
					construct(aast.ConstructWhile, lit("0", types.Int)),
					construct(aast.ConstructElif, lit("1", types.Int)),
				),
			}},
			code: "MISPLACED_CONSTRUCT",
		},
		{
			name: "attribute of a non class",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("n", types.Int, nil), call("print", member(ref("n"), "x"))),
			}},
			code: "INVALID_ATTRIBUTE_ACCESS",
		},
		{
			name: "missing attribute",
			prog: &aast.Program{
				Classes:   []*aast.Class{point},
				Functions: []*aast.Function{mainReturning(decl("p", "Point", nil), call("print", member(ref("p"), "z")))},
			},
			code: "NO_SUCH_MEMBER",
		},
		{
			name: "non literal global",
			prog: &aast.Program{
				Globals:   []*aast.Declaration{decl("g", types.Int, op("+", lit("1", types.Int), lit("2", types.Int)))},
				Functions: []*aast.Function{mainReturning()},
			},
			code: "NON_CONSTANT_INITIALIZER",
		},
		{
			name: "unknown declared type",
			prog: &aast.Program{Functions: []*aast.Function{mainReturning(decl("v", "Vec", nil))}},
			code: "UNDEFINED_TYPE",
		},
		{
			name: "print used as a value",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("x", types.Int, call("print", lit("1", types.Int)))),
			}},
			code: "NOT_A_VALUE",
		},
		{
			name: "return type mismatch",
			prog: &aast.Program{Functions: []*aast.Function{
				fn("main", types.Int, nil, op("return", lit(`"zero"`, types.String))),
			}},
			code: "TYPE_MISMATCH",
		},
		{
			name: "assignment to a literal",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(op("=", lit("1", types.Int), lit("2", types.Int))),
			}},
			code: "NOT_ADDRESSABLE",
		},
		{
			name: "compound assignment to a sum",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("x", types.Int, nil), op("+=", op("+", ref("x"), lit("1", types.Int)), lit("1", types.Int))),
			}},
			code: "NOT_ADDRESSABLE",
		},
		{
			name: "address of a literal",
			prog: &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("p", "int*", op("&", lit("5", types.Int)))),
			}},
			code: "NOT_ADDRESSABLE",
		},
		{
			name: "variable named after a class",
			prog: &aast.Program{
				Classes:   []*aast.Class{point},
				Functions: []*aast.Function{mainReturning(decl("Point", types.Int, lit("1", types.Int)))},
			},
			code: "SHADOWED_TYPE",
		},
		{
			name: "parameter named after a builtin type",
			prog: &aast.Program{Functions: []*aast.Function{
				fn("f", types.Void, []aast.Param{{Name: "num", Type: types.Int}}),
				mainReturning(),
			}},
			code: "SHADOWED_TYPE",
		},
		{
			name: "function named after an operator",
			prog: &aast.Program{Functions: []*aast.Function{fn("print", types.Void, nil), mainReturning()}},
			code: "INVALID_IDENTIFIER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := translate(t, tt.prog)
			if err == nil {
				t.Fatalf("Translate() succeeded, want %s\n%s", tt.code, out)
			}
			be.Equal(t, errors.CodeOf(err), tt.code)
			be.Equal(t, out, "")
		})
	}
}

func TestPrintLowering(t *testing.T) {
	prog := &aast.Program{Functions: []*aast.Function{
		mainReturning(
			call("print"),
			call("print", lit(`"x = "`, types.String), lit("7", types.Int)),
			call("print", lit("a", types.Char)),
			call("print", lit(`\n`, types.Char)),
		),
	}}

	out := mustTranslate(t, prog)
	be.True(t, strings.Contains(out, "    puts(\"\");\n"))
	be.True(t, strings.Contains(out, "    fputs(\"x = \", stdout);\n    printf(\"%lld\", 7);\n"))
	be.True(t, strings.Contains(out, "    putchar('a');\n"))
	be.True(t, strings.Contains(out, "    putchar('\\n');\n"))
}

func TestCharacterLiterals(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"letter", "a", `'a'`},
		{"quote", "'", `'\''`},
		{"backslash", `\`, `'\\'`},
		{"escape sequence", `\n`, `'\n'`},
		{"already quoted", "'b'", "'b'"},
		{"quoted escape", `'\''`, `'\''`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := &aast.Program{Functions: []*aast.Function{
				mainReturning(decl("c", types.Char, lit(tt.value, types.Char))),
			}}
			out := mustTranslate(t, prog)
			be.True(t, strings.Contains(out, "    char c = "+tt.want+";\n"))
		})
	}
}

func TestConstructs(t *testing.T) {
	abc := []aast.Node{
		decl("a", types.Int, lit("1", types.Int)),
		decl("b", types.Int, lit("2", types.Int)),
		decl("c", types.Int, lit("3", types.Int)),
	}
	body := append(abc,
		construct(aast.ConstructIf, op("<", ref("a"), ref("b"), ref("c")),
			decl("inner", types.Num, ref("a")),
			call("print", ref("inner")),
		),
		construct(aast.ConstructElif, ref("b"),
			call("print", lit(`"b"`, types.String)),
		),
		construct(aast.ConstructElse, nil,
			construct(aast.ConstructWhile, op(">", ref("c"), lit("0", types.Int)),
				op("-=", ref("c"), lit("1", types.Int)),
			),
		),
	)
	prog := &aast.Program{Functions: []*aast.Function{mainReturning(body...)}}

	want := `ll _koberic_4main(void) {
    ll a = 1;
    ll b = 2;
    ll c = 3;
    if (((a < b) && (b < c))) {
        num inner = a;
        printf("%f", inner);
    }
    else if (b) {
        fputs("b", stdout);
    }
    else {
        while ((c > 0)) {
            c -= 1;
        }
    }
    return 0;
}
`
	be.True(t, strings.Contains(mustTranslate(t, prog), want))
}

func TestBlockScopes(t *testing.T) {
	// x declared inside the if block is gone after it.
	prog := &aast.Program{Functions: []*aast.Function{
		mainReturning(
			construct(aast.ConstructIf, lit("1", types.Int), decl("x", types.Int, nil)),
			call("print", ref("x")),
		),
	}}
	_, err := translate(t, prog)
	be.Equal(t, errors.CodeOf(err), "UNDEFINED_VARIABLE")

	// a nested block may shadow an outer name
	prog = &aast.Program{Functions: []*aast.Function{
		mainReturning(
			decl("x", types.Int, nil),
			construct(aast.ConstructIf, lit("1", types.Int), decl("x", types.Num, nil)),
		),
	}}
	out := mustTranslate(t, prog)
	be.True(t, strings.Contains(out, "        num x;\n"))
}

func animals() []*aast.Class {
	return []*aast.Class{
		class("Animal", "", aast.Param{Name: "legs", Type: types.Int}),
		class("Dog", "Animal", aast.Param{Name: "weight", Type: types.Num}, aast.Param{Name: "friend", Type: "Dog*"}),
	}
}

func TestInheritance(t *testing.T) {
	walk := fn("walk", types.Void, []aast.Param{{Name: "steps", Type: types.Int}},
		op("=", member(ref("self"), "legs"), ref("steps")),
	)
	walk.Class = "Animal"
	bark := fn("bark", types.Int, nil, op("return", member(ref("self"), "legs")))
	bark.Class = "Dog"

	prog := &aast.Program{
		Classes: animals(),
		Functions: []*aast.Function{
			walk,
			bark,
			mainReturning(
				decl("d", "Dog", nil),
				method(ref("d"), "walk", lit("4", types.Int)),
				decl("n", types.Int, method(ref("d"), "bark")),
				decl("a", "Animal", &aast.Cast{Meta: aast.Meta{Typ: "Animal"}, Value: ref("d")}),
				method(ref("a"), "walk", lit("2", types.Int)),
				op("=", member(ref("d"), "friend"), op("new", ref("Dog"))),
			),
		},
	}

	out := mustTranslate(t, prog)
	be.True(t, strings.Contains(out, "typedef struct Dog {\n    ll legs;\n    num weight;\n    struct Dog * friend;\n} Dog;\n"))
	be.True(t, strings.Contains(out, "void _koberic_M6Animal_4walk_3int(Animal * self, ll steps);\n"))
	be.True(t, strings.Contains(out, "ll _koberic_M3Dog_4bark(Dog * self);\n"))
	be.True(t, strings.Contains(out, "    (*self).legs = steps;\n"))
	be.True(t, strings.Contains(out, "    _koberic_M6Animal_4walk_3int(((Animal *)((void *)&(d))), 4);\n"))
	be.True(t, strings.Contains(out, "    ll n = _koberic_M3Dog_4bark(&(d));\n"))
	be.True(t, strings.Contains(out, "    Animal a = (*((Animal*)((void *)&(d))));\n"))
	be.True(t, strings.Contains(out, "    _koberic_M6Animal_4walk_3int(&(a), 2);\n"))
	be.True(t, strings.Contains(out, "    d.friend = ((Dog*)malloc(sizeof(Dog)));\n"))

	// methods declared on a subclass are not visible on the base class
	prog.Functions = []*aast.Function{bark, mainReturning(decl("a", "Animal", nil), method(ref("a"), "bark"))}
	_, err := translate(t, prog)
	be.Equal(t, errors.CodeOf(err), "UNDECLARED_METHOD")

	// unrelated classes do not cast
	prog.Classes = append(animals(), class("Rock", "", aast.Param{Name: "mass", Type: types.Num}))
	prog.Functions = []*aast.Function{mainReturning(
		decl("r", "Rock", nil),
		decl("d", "Dog", &aast.Cast{Meta: aast.Meta{Typ: "Dog"}, Value: ref("r")}),
	)}
	_, err = translate(t, prog)
	be.Equal(t, errors.CodeOf(err), "INVALID_CAST")

	// a returned object is a temporary: it can be neither self nor aliased
	adopt := fn("adopt", "Dog", nil, decl("d", "Dog", nil), op("return", ref("d")))
	temporaries := []struct {
		name string
		stmt aast.Node
	}{
		{"method on a call result", method(call("adopt"), "walk", lit("1", types.Int))},
		{"cast of a call result", decl("a", "Animal", &aast.Cast{Meta: aast.Meta{Typ: "Animal"}, Value: call("adopt")})},
		{"assignment to an attribute of a call result", op("=", member(call("adopt"), "legs"), lit("1", types.Int))},
	}
	for _, tt := range temporaries {
		t.Run(tt.name, func(t *testing.T) {
			prog := &aast.Program{Classes: animals(), Functions: []*aast.Function{walk, adopt, mainReturning(tt.stmt)}}
			_, err := translate(t, prog)
			be.Equal(t, errors.CodeOf(err), "NOT_ADDRESSABLE")
		})
	}
}

func TestGlobalsAndLibraries(t *testing.T) {
	prog := &aast.Program{
		Libraries: []string{"ctype", "stdio"},
		Globals: []*aast.Declaration{
			decl("counter", types.Uint, lit("0", types.Uint)),
			decl("ratio", types.Num, nil),
		},
		Functions: []*aast.Function{
			mainReturning(op("+=", ref("counter"), lit("1", types.Int))),
		},
	}
	tr := New(prog, Options{Indent: "\t", Libraries: []string{"<assert.h>", "ctype.h"}})
	out, err := tr.Translate()
	be.Err(t, err, nil)

	be.True(t, strings.Contains(out, "#include <string.h>\n#include <ctype.h>\n#include <assert.h>\n\n"))
	be.Equal(t, strings.Count(out, "#include <stdio.h>"), 1)
	be.True(t, strings.Contains(out, "/* Global Variables */\n\null counter = 0;\nnum ratio;\n"))
	be.True(t, strings.Contains(out, "\tcounter += 1;\n"))

	sym, err := tr.Context().Symbols.Lookup("counter")
	be.Err(t, err, nil)
	be.Equal(t, sym.Type, types.Uint)
}

func TestInlineC(t *testing.T) {
	prog := &aast.Program{Functions: []*aast.Function{
		mainReturning(call("c", lit(`"int raw = 0;"`, types.String), lit(`"puts(\"hi\");"`, types.String))),
	}}
	out := mustTranslate(t, prog)
	be.True(t, strings.Contains(out, "    int raw = 0;\n    puts(\"hi\");\n"))
}

func TestCustomEntry(t *testing.T) {
	prog := &aast.Program{Functions: []*aast.Function{
		fn("start", types.Int, nil, op("return", lit("0", types.Int))),
	}}
	out, err := New(prog, Options{Entry: "start"}).Translate()
	be.Err(t, err, nil)
	be.True(t, strings.HasSuffix(out, "int main(int argc, const char * argv[]) {\n    return _koberic_5start();\n}\n"))
}
