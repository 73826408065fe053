package codegen

import (
	"strings"

	"github.com/koberi-lang/koberic/internal/aast"
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/lower"
	"github.com/koberi-lang/koberic/internal/resolver"
	"github.com/koberi-lang/koberic/internal/types"
)

func (t *Translator) function(f *aast.Function) error {
	sig := t.sigs[f]
	t.current = sig
	t.env = lower.Env{Function: sig.String(), Return: sig.Return, Classes: t.ctx.Classes}

	symbols := t.ctx.Symbols
	symbols.EnterScope(resolver.ScopeKindFunction, sig.String())
	defer symbols.ExitScope()

	if f.Class != "" {
		self := &resolver.Symbol{Name: resolver.SelfName, Type: types.Type(f.Class), Kind: resolver.SymbolKindSelf, Pos: f.Pos}
		if err := symbols.Define(self); err != nil {
			return err
		}
	}
	for _, p := range f.Params {
		if err := t.define(&resolver.Symbol{Name: p.Name, Type: p.Type, Kind: resolver.SymbolKindParameter, Pos: f.Pos}); err != nil {
			return err
		}
	}

	t.line(t.prototype(f) + " {")
	if f.Body != nil {
		if err := t.statements(f.Body); err != nil {
			return err
		}
	}
	t.line("}")
	return nil
}

// block emits a nested scope with its own variables.
func (t *Translator) block(s *aast.Scope, name string) error {
	t.ctx.Symbols.EnterScope(resolver.ScopeKindBlock, name)
	defer t.ctx.Symbols.ExitScope()
	if s == nil {
		return nil
	}
	return t.statements(s)
}

func (t *Translator) statements(s *aast.Scope) error {
	t.level++
	defer func() { t.level-- }()

	// prev is the construct emitted just before, if the previous statement was one.
	var prev *aast.Construct
	for _, n := range s.Body {
		c, isConstruct := n.(*aast.Construct)
		if err := t.statement(n, prev); err != nil {
			return err
		}
		prev = nil
		if isConstruct {
			prev = c
		}
	}
	return nil
}

func (t *Translator) statement(n aast.Node, prev *aast.Construct) error {
	switch n := n.(type) {
	case *aast.FunCall, *aast.Operator, *aast.Cast:
		p, err := t.expr(n)
		if err != nil {
			return err
		}
		if p.Form == lower.FormType {
			return errors.InvalidStatement(t.current.String(), "type name").At(n.Position())
		}
		for _, l := range p.Emit() {
			t.line(l)
		}
		return nil

	case *aast.Declaration:
		decl, err := t.declaration(n, resolver.SymbolKindLocal)
		if err != nil {
			return err
		}
		t.line(decl)
		return nil

	case *aast.Construct:
		return t.construct(n, prev)

	default:
		return errors.InvalidStatement(t.current.String(), n.NodeType().String()).At(n.Position())
	}
}

func (t *Translator) construct(c *aast.Construct, prev *aast.Construct) error {
	var header string
	switch c.Kind {
	case aast.ConstructIf, aast.ConstructWhile:
		header = c.Kind.String()
	case aast.ConstructElif:
		header = "else if"
	case aast.ConstructElse:
		header = "else"
	}

	if c.Kind == aast.ConstructElif || c.Kind == aast.ConstructElse {
		if prev == nil || (prev.Kind != aast.ConstructIf && prev.Kind != aast.ConstructElif) {
			return errors.MisplacedConstruct(c.Kind.String()).At(c.Pos)
		}
	}

	if c.Kind.HasCondition() {
		cond, err := t.expr(c.Cond)
		if err != nil {
			return err
		}
		if !cond.IsValue() {
			return errors.NotAValue(c.Kind.String() + " condition").At(c.Pos)
		}
		if !cond.Type.IsNumeric() {
			return errors.NonNumericCondition(c.Kind.String(), cond.Type.String()).At(c.Pos)
		}
		header += " (" + cond.Value + ")"
	}

	t.line(header + " {")
	if err := t.block(c.Body, c.Kind.String()); err != nil {
		return err
	}
	t.line("}")
	return nil
}

// declaration checks a variable declaration, defines the variable in the current
// scope and returns its C text. The initializer is translated before the variable
// becomes visible.
func (t *Translator) declaration(d *aast.Declaration, kind resolver.SymbolKind) (string, error) {
	typ := d.Type()
	if typ == types.Void || !t.ctx.Classes.Known(typ) {
		return "", errors.UndefinedType(typ.String()).At(d.Pos)
	}
	decl := typ.Translate() + " " + d.Name

	if d.Init != nil {
		init, err := t.expr(d.Init)
		if err != nil {
			return "", err
		}
		if !init.IsValue() {
			return "", errors.NotAValue("initializer of " + d.Name).At(d.Pos)
		}
		if !types.Compatible(typ, init.Type) {
			return "", errors.TypeMismatch("declaration of variable "+d.Name, typ.String(), init.Type.String()).At(d.Pos)
		}
		decl += " = " + init.Value
	}

	if err := t.define(&resolver.Symbol{Name: d.Name, Type: typ, Kind: kind, Pos: d.Pos}); err != nil {
		return "", err
	}
	return decl + ";", nil
}

// define adds a variable to the current scope. Names of types are refused, since
// the variable would hide the type from cast, new and sizeof.
func (t *Translator) define(sym *resolver.Symbol) error {
	if t.ctx.Classes.Known(types.Type(sym.Name)) {
		return errors.ShadowedType(sym.Name).At(sym.Pos)
	}
	return t.ctx.Symbols.Define(sym)
}

// expr lowers an expression node. Type names are returned with FormType so that
// cast, new and sizeof can take them as operands.
func (t *Translator) expr(n aast.Node) (lower.Parameter, error) {
	switch n := n.(type) {
	case *aast.Literal:
		return t.literal(n)
	case *aast.Variable:
		return t.variable(n)
	case *aast.MemberAccess:
		return t.memberAccess(n)
	case *aast.FunCall:
		return t.funCall(n)
	case *aast.Operator:
		return t.operator(n.Op, n.Args, n)
	case *aast.Cast:
		return t.cast(n)
	default:
		return lower.Parameter{}, errors.NotAValue(n.NodeType().String()).At(n.Position())
	}
}

func (t *Translator) literal(l *aast.Literal) (lower.Parameter, error) {
	typ := l.Type()
	if typ == types.None {
		return lower.Parameter{}, errors.UndefinedType("literal " + l.Value).At(l.Pos)
	}
	value := l.Value
	if typ.IsNarrow() {
		value = charLiteral(value)
	}
	return lower.Value(value, typ), nil
}

// charLiteral quotes a character for C. Values that are already quoted and
// two-character escape sequences such as \n are kept; a lone quote or backslash
// is escaped.
func charLiteral(v string) string {
	switch {
	case len(v) >= 3 && v[0] == '\'' && v[len(v)-1] == '\'':
		return v
	case len(v) == 2 && v[0] == '\\':
		return "'" + v + "'"
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

func (t *Translator) variable(v *aast.Variable) (lower.Parameter, error) {
	sym, err := t.ctx.Symbols.Lookup(v.Name)
	if err != nil {
		if typ, ok := types.Parse(v.Name); ok && t.ctx.Classes.Known(typ) {
			return lower.TypeName(typ), nil
		}
		return lower.Parameter{}, at(err, v.Pos)
	}
	if sym.Kind == resolver.SymbolKindSelf {
		return lower.Storage("(*"+resolver.SelfName+")", sym.Type), nil
	}
	return lower.Storage(sym.Name, sym.Type), nil
}

// memberAccess resolves Base.a.b... one attribute at a time; every step before
// the last must have a class type.
func (t *Translator) memberAccess(m *aast.MemberAccess) (lower.Parameter, error) {
	if len(m.Chain) == 0 {
		return lower.Parameter{}, errors.InvalidAttributeAccess(t.current.String(), "no attribute named").At(m.Pos)
	}
	base, err := t.expr(m.Base)
	if err != nil {
		return lower.Parameter{}, err
	}
	if !base.IsValue() {
		return lower.Parameter{}, errors.InvalidAttributeAccess(t.current.String(), base.String()+" is not a value").At(m.Pos)
	}

	value, typ := base.Value, base.Type
	for _, attr := range m.Chain {
		if !t.ctx.Classes.IsClass(string(typ)) {
			return lower.Parameter{}, errors.InvalidAttributeAccess(t.current.String(), typ.String()+" is not a class").At(m.Pos)
		}
		typ, err = t.ctx.Classes.Attribute(typ, attr)
		if err != nil {
			return lower.Parameter{}, at(err, m.Pos)
		}
		value += "." + attr
	}
	// an attribute of a temporary is not storage in C
	return lower.Parameter{Value: value, Type: typ, Addressable: base.Addressable}, nil
}

func (t *Translator) funCall(c *aast.FunCall) (lower.Parameter, error) {
	if c.Object == nil && lower.IsOperator(c.Name) {
		return t.operator(c.Name, c.Args, c)
	}

	args, err := t.values(c.Name, c.Args)
	if err != nil {
		return lower.Parameter{}, err
	}
	argTypes := make([]types.Type, len(args))
	values := make([]string, 0, len(args)+1)
	for i, a := range args {
		argTypes[i] = a.Type
	}

	var sig *resolver.Signature
	if c.Object != nil {
		obj, err := t.expr(c.Object)
		if err != nil {
			return lower.Parameter{}, err
		}
		if !obj.IsValue() {
			return lower.Parameter{}, errors.NotAValue("receiver of " + c.Name).At(c.Pos)
		}
		sig, err = t.ctx.Signatures.Method(t.ctx.Classes, obj.Type, c.Name, argTypes)
		if err != nil {
			return lower.Parameter{}, at(err, c.Pos)
		}
		recv, err := lower.Receiver(obj, sig.Class)
		if err != nil {
			return lower.Parameter{}, at(err, c.Pos)
		}
		values = append(values, recv)
	} else {
		sig, err = t.ctx.Signatures.Function(c.Name, argTypes)
		if err != nil {
			return lower.Parameter{}, at(err, c.Pos)
		}
	}

	for _, a := range args {
		values = append(values, a.Value)
	}
	return lower.Value(sig.Mangled+"("+strings.Join(values, ", ")+")", sig.Return), nil
}

// values lowers call arguments, all of which must be expressions.
func (t *Translator) values(callee string, nodes []aast.Node) ([]lower.Parameter, error) {
	out := make([]lower.Parameter, len(nodes))
	for i, n := range nodes {
		p, err := t.expr(n)
		if err != nil {
			return nil, err
		}
		if !p.IsValue() {
			return nil, errors.NotAValue("argument " + p.String() + " of " + callee).At(n.Position())
		}
		out[i] = p
	}
	return out, nil
}

func (t *Translator) operator(op string, nodes []aast.Node, n aast.Node) (lower.Parameter, error) {
	args := make([]lower.Parameter, len(nodes))
	for i, a := range nodes {
		p, err := t.expr(a)
		if err != nil {
			return lower.Parameter{}, err
		}
		args[i] = p
	}
	p, err := lower.Apply(t.env, op, args)
	if err != nil {
		return lower.Parameter{}, at(err, n.Position())
	}
	return p, nil
}

func (t *Translator) cast(c *aast.Cast) (lower.Parameter, error) {
	target := c.Target()
	if !t.ctx.Classes.Known(target) {
		return lower.Parameter{}, errors.UndefinedType(target.String()).At(c.Pos)
	}
	v, err := t.expr(c.Value)
	if err != nil {
		return lower.Parameter{}, err
	}
	if !v.IsValue() {
		return lower.Parameter{}, errors.NotAValue("cast operand " + v.String()).At(c.Pos)
	}
	p, err := lower.Cast(v, target, t.ctx.Classes)
	if err != nil {
		return lower.Parameter{}, at(err, c.Pos)
	}
	return p, nil
}
