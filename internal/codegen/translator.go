// Package codegen translates an analyzed Koberi-C program into a single C
// translation unit.
//
// Translation runs in two phases. The first fills the compilation context with
// class layouts, in class order, and every function and method signature, then
// checks the entry point. The second emits the fixed output sections. Nothing is
// returned unless both phases succeed.
package codegen

import (
	"fmt"
	"strings"

	"github.com/koberi-lang/koberic/internal/aast"
	"github.com/koberi-lang/koberic/internal/cli"
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/layout"
	"github.com/koberi-lang/koberic/internal/lower"
	"github.com/koberi-lang/koberic/internal/mangle"
	"github.com/koberi-lang/koberic/internal/position"
	"github.com/koberi-lang/koberic/internal/resolver"
	"github.com/koberi-lang/koberic/internal/types"
)

// StandardLibraries are included by every translation unit.
var StandardLibraries = []string{"stdio", "stdlib", "stdint", "time", "math", "string"}

var typedefs = []string{
	"typedef double num;",
	"typedef long long ll;",
	"typedef unsigned long long ull;",
	"typedef unsigned char uchar;",
}

// Options control the shape of the generated code.
type Options struct {
	Logger    *cli.Logger
	Indent    string   // one indentation level; four spaces when empty
	Entry     string   // entry function name; "main" when empty
	Libraries []string // extra headers, after the program's own
}

// Translator holds the state of one translation. It is not safe for concurrent use;
// translate independent programs with independent translators.
type Translator struct {
	prog *aast.Program
	opts Options
	ctx  *resolver.Context
	log  *cli.Logger

	sigs map[*aast.Function]*resolver.Signature

	out   strings.Builder
	level int

	// function being emitted
	current *resolver.Signature
	env     lower.Env
}

// New creates a translator for prog.
func New(prog *aast.Program, opts Options) *Translator {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	if opts.Entry == "" {
		opts.Entry = "main"
	}
	log := opts.Logger
	if log == nil {
		log = cli.NewLogger(false, false)
	}
	return &Translator{prog: prog, opts: opts, log: log}
}

// Context returns the compilation context filled by the last call to Translate.
func (t *Translator) Context() *resolver.Context { return t.ctx }

// Translate produces the C source for the program.
func (t *Translator) Translate() (string, error) {
	t.ctx = resolver.NewContext(t.prog.ClassNames())
	t.sigs = make(map[*aast.Function]*resolver.Signature, len(t.prog.Functions))
	t.out.Reset()
	t.level = 0

	steps := []struct {
		name string
		run  func() error
	}{
		{"classes", t.registerClasses},
		{"signatures", t.registerFunctions},
		{"entry", t.checkEntry},
		{"libraries", t.emitLibraries},
		{"typedefs", t.emitTypedefs},
		{"classes", t.emitClasses},
		{"globals", t.emitGlobals},
		{"declarations", t.emitDeclarations},
		{"definitions", t.emitDefinitions},
		{"main", t.emitMain},
	}
	for _, s := range steps {
		t.log.Debug("phase %s", s.name)
		if err := s.run(); err != nil {
			return "", err
		}
	}
	return t.out.String(), nil
}

func (t *Translator) registerClasses() error {
	for _, c := range t.prog.Classes {
		attrs := make([]layout.Attribute, len(c.Attributes))
		for i, a := range c.Attributes {
			attrs[i] = layout.Attribute{Name: a.Name, Type: a.Type}
		}
		class, err := t.ctx.Classes.Add(c.Name, c.Super, attrs, c.Pos)
		if err != nil {
			return err
		}
		t.log.Debug("%s", class.Layout)
	}
	return nil
}

func (t *Translator) registerFunctions() error {
	for _, f := range t.prog.Functions {
		if f.Class == "" && lower.IsOperator(f.Name) {
			return errors.InvalidIdentifier(f.Name).At(f.Pos)
		}
		if f.Class != "" && !t.ctx.Classes.IsClass(f.Class) {
			return errors.UndefinedClass(f.Class).At(f.Pos)
		}
		if !t.ctx.Classes.Known(f.Return()) {
			return errors.UndefinedType(f.Return().String()).At(f.Pos)
		}
		for _, p := range f.Params {
			if !types.IsIdentifier(p.Name) {
				return errors.InvalidIdentifier(p.Name).At(f.Pos)
			}
			if p.Type == types.Void || !t.ctx.Classes.Known(p.Type) {
				return errors.UndefinedType(p.Type.String()).At(f.Pos)
			}
		}
		sig, err := t.ctx.Signatures.Register(resolver.Signature{
			Name:   f.Name,
			Params: f.ParamTypes(),
			Return: f.Return(),
			Class:  f.Class,
			Pos:    f.Pos,
		})
		if err != nil {
			return err
		}
		t.sigs[f] = sig
		t.log.Debug("registered %s as %s", sig, sig.Mangled)
	}
	return nil
}

// checkEntry requires a free function named after the entry point that takes no
// parameters and returns int.
func (t *Translator) checkEntry() error {
	name := t.opts.Entry
	sig, err := t.ctx.Signatures.Function(name, nil)
	if err != nil {
		for _, f := range t.prog.Functions {
			if f.Class == "" && f.Name == name {
				return errors.InvalidEntry(name, "must not take parameters").At(f.Pos)
			}
		}
		return errors.MissingEntry(name)
	}
	if sig.Return != types.Int {
		return errors.InvalidEntry(name, "must return int, not "+sig.Return.String()).At(sig.Pos)
	}
	return nil
}

func (t *Translator) emitLibraries() error {
	t.section("Libraries")
	seen := make(map[string]bool)
	all := make([]string, 0, len(StandardLibraries)+len(t.prog.Libraries)+len(t.opts.Libraries))
	all = append(all, StandardLibraries...)
	all = append(all, t.prog.Libraries...)
	all = append(all, t.opts.Libraries...)
	for _, lib := range all {
		header := includeName(lib)
		if seen[header] {
			continue
		}
		seen[header] = true
		t.line("#include " + header)
	}
	return nil
}

// includeName turns a library name into the operand of an #include directive.
func includeName(lib string) string {
	lib = strings.TrimSpace(lib)
	if strings.HasPrefix(lib, "<") || strings.HasPrefix(lib, `"`) {
		return lib
	}
	if !strings.HasSuffix(lib, ".h") {
		lib += ".h"
	}
	return "<" + lib + ">"
}

func (t *Translator) emitTypedefs() error {
	t.section("Typedefs")
	for _, td := range typedefs {
		t.line(td)
	}
	return nil
}

func (t *Translator) emitClasses() error {
	t.section("Classes")
	for i, c := range t.ctx.Classes.Order() {
		if i > 0 {
			t.blank()
		}
		t.line("typedef struct " + c.Name + " {")
		t.level++
		for _, f := range c.Layout.Fields {
			t.line(fieldType(f.Type) + " " + f.Name + ";")
		}
		t.level--
		t.line("} " + c.Name + ";")
	}
	return nil
}

// fieldType spells an attribute type. Class pointers use the struct tag so a
// class may point to itself or to a class defined later.
func fieldType(t types.Type) string {
	if t.IsPointer() && t.Kind() == types.KindClass {
		return "struct " + string(t.Elem()) + " *"
	}
	return t.Translate()
}

func (t *Translator) emitGlobals() error {
	t.section("Global Variables")
	for _, g := range t.prog.Globals {
		if g.Init != nil {
			if _, ok := g.Init.(*aast.Literal); !ok {
				return errors.NonConstantInitializer(g.Name).At(g.Pos)
			}
		}
		decl, err := t.declaration(g, resolver.SymbolKindGlobal)
		if err != nil {
			return err
		}
		t.line(decl)
	}
	return nil
}

func (t *Translator) emitDeclarations() error {
	t.section("Function Declarations")
	for _, f := range t.prog.Functions {
		t.line(t.prototype(f) + ";")
	}
	return nil
}

// prototype renders a function header. Methods take the receiver as a leading
// pointer named self.
func (t *Translator) prototype(f *aast.Function) string {
	params := make([]string, 0, len(f.Params)+1)
	if f.Class != "" {
		params = append(params, f.Class+" * "+resolver.SelfName)
	}
	for _, p := range f.Params {
		params = append(params, p.Type.Translate()+" "+p.Name)
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	return fmt.Sprintf("%s %s(%s)", f.Return().Translate(), t.sigs[f].Mangled, strings.Join(params, ", "))
}

func (t *Translator) emitDefinitions() error {
	t.section("Function Definitions")
	for i, f := range t.prog.Functions {
		if i > 0 {
			t.blank()
		}
		if err := t.function(f); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) emitMain() error {
	t.section("C Main Function")
	t.line("int main(int argc, const char * argv[]) {")
	t.level++
	t.line("return " + mangle.Function(t.opts.Entry, nil) + "();")
	t.level--
	t.line("}")
	return nil
}

func (t *Translator) section(name string) {
	if t.out.Len() > 0 {
		t.blank()
	}
	t.line("/* " + name + " */")
	t.blank()
}

func (t *Translator) line(s string) {
	for i := 0; i < t.level; i++ {
		t.out.WriteString(t.opts.Indent)
	}
	t.out.WriteString(s)
	t.out.WriteByte('\n')
}

func (t *Translator) blank() {
	t.out.WriteByte('\n')
}

// at attaches pos to err when err is a StandardError without a position.
func at(err error, pos position.Position) error {
	if se, ok := err.(*errors.StandardError); ok {
		return se.At(pos)
	}
	return err
}
