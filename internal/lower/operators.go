package lower

import (
	"strings"

	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

// OperatorKind selects the lowering rule for an operator application.
type OperatorKind int

const (
	KindInvalid OperatorKind = iota
	KindReturn
	KindKeyword
	KindNegate
	KindAddressOf
	KindDereference
	KindNew
	KindNot
	KindSizeof
	KindPrefix
	KindArithmetic
	KindBitwise
	KindLogical
	KindFmod
	KindCompare
	KindAssign
	KindCompound
	KindPrint
	KindInlineC
	KindCast
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindReturn:      "return",
	KindKeyword:     "keyword",
	KindNegate:      "negate",
	KindAddressOf:   "address-of",
	KindDereference: "dereference",
	KindNew:         "new",
	KindNot:         "not",
	KindSizeof:      "sizeof",
	KindPrefix:      "prefix",
	KindArithmetic:  "arithmetic",
	KindBitwise:     "bitwise",
	KindLogical:     "logical",
	KindFmod:        "fmod",
	KindCompare:     "compare",
	KindAssign:      "assign",
	KindCompound:    "compound-assign",
	KindPrint:       "print",
	KindInlineC:     "inline-c",
	KindCast:        "cast",
}

func (k OperatorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Arity classes of an operator name. KindInvalid marks an argument count the
// operator does not accept.
type operatorSpec struct {
	none, unary, variadic OperatorKind
}

// operators lists every reserved operator name.
var operators = map[string]operatorSpec{
	"return":   {KindReturn, KindReturn, KindInvalid},
	"break":    {KindKeyword, KindInvalid, KindInvalid},
	"continue": {KindKeyword, KindInvalid, KindInvalid},
	"-":        {KindInvalid, KindNegate, KindArithmetic},
	"&":        {KindInvalid, KindAddressOf, KindBitwise},
	"*":        {KindInvalid, KindDereference, KindArithmetic},
	"new":      {KindInvalid, KindNew, KindInvalid},
	"not":      {KindInvalid, KindNot, KindInvalid},
	"!":        {KindInvalid, KindNot, KindInvalid},
	"sizeof":   {KindInvalid, KindSizeof, KindInvalid},
	"~":        {KindInvalid, KindPrefix, KindInvalid},
	"+":        {KindInvalid, KindInvalid, KindArithmetic},
	"/":        {KindInvalid, KindInvalid, KindArithmetic},
	"%":        {KindInvalid, KindInvalid, KindBitwise},
	"|":        {KindInvalid, KindInvalid, KindBitwise},
	"^":        {KindInvalid, KindInvalid, KindBitwise},
	"<<":       {KindInvalid, KindInvalid, KindBitwise},
	">>":       {KindInvalid, KindInvalid, KindBitwise},
	"and":      {KindInvalid, KindInvalid, KindLogical},
	"or":       {KindInvalid, KindInvalid, KindLogical},
	"&&":       {KindInvalid, KindInvalid, KindLogical},
	"||":       {KindInvalid, KindInvalid, KindLogical},
	"fmod":     {KindFmod, KindFmod, KindFmod},
	"<":        {KindInvalid, KindInvalid, KindCompare},
	">":        {KindInvalid, KindInvalid, KindCompare},
	"<=":       {KindInvalid, KindInvalid, KindCompare},
	">=":       {KindInvalid, KindInvalid, KindCompare},
	"==":       {KindInvalid, KindInvalid, KindCompare},
	"!=":       {KindInvalid, KindInvalid, KindCompare},
	"=":        {KindInvalid, KindInvalid, KindAssign},
	"+=":       {KindInvalid, KindInvalid, KindCompound},
	"-=":       {KindInvalid, KindInvalid, KindCompound},
	"*=":       {KindInvalid, KindInvalid, KindCompound},
	"/=":       {KindInvalid, KindInvalid, KindCompound},
	"print":    {KindPrint, KindPrint, KindPrint},
	"c":        {KindInlineC, KindInlineC, KindInlineC},
	"_c":       {KindInlineC, KindInlineC, KindInlineC},
	"cast":     {KindInvalid, KindInvalid, KindCast},
}

var cSpelling = map[string]string{
	"and": "&&",
	"or":  "||",
}

// IsOperator reports whether name is reserved for an operator.
func IsOperator(name string) bool {
	_, ok := operators[name]
	return ok
}

// Resolve picks the lowering rule for name applied to argc arguments.
// function names the enclosing function for diagnostics.
func Resolve(name string, argc int, function string) (OperatorKind, error) {
	spec, ok := operators[name]
	if !ok {
		return KindInvalid, errors.UndeclaredFunction(name)
	}
	kind := spec.variadic
	switch argc {
	case 0:
		kind = spec.none
	case 1:
		kind = spec.unary
	}
	if kind == KindInvalid {
		return KindInvalid, errors.WrongArity(name, function, argc, arityReason(spec, argc))
	}
	return kind, nil
}

func arityReason(spec operatorSpec, argc int) string {
	switch {
	case argc == 0:
		return "too few parameters"
	case argc == 1 && spec.variadic != KindInvalid:
		return "too few parameters"
	default:
		return "too many parameters"
	}
}

// Hierarchy answers inheritance questions for class-hierarchy casts.
type Hierarchy interface {
	IsRelated(a, b string) bool
}

// Env is what the operator rules need to know about the enclosing function.
type Env struct {
	Function string     // enclosing function, for diagnostics
	Return   types.Type // its declared return type
	Classes  Hierarchy
}

type lowerFunc func(env Env, op string, args []Parameter) (Parameter, error)

var lowerers map[OperatorKind]lowerFunc

func init() {
	lowerers = map[OperatorKind]lowerFunc{
		KindReturn:      lowerReturn,
		KindKeyword:     lowerKeyword,
		KindNegate:      lowerNegate,
		KindAddressOf:   lowerAddressOf,
		KindDereference: lowerDereference,
		KindNew:         lowerNew,
		KindNot:         lowerNot,
		KindSizeof:      lowerSizeof,
		KindPrefix:      lowerPrefix,
		KindArithmetic:  lowerArithmetic,
		KindBitwise:     lowerBitwise,
		KindLogical:     lowerLogical,
		KindFmod:        lowerFmod,
		KindCompare:     lowerCompare,
		KindAssign:      lowerAssign,
		KindCompound:    lowerCompound,
		KindPrint:       lowerPrint,
		KindInlineC:     lowerInlineC,
		KindCast:        lowerCast,
	}
}

// Apply lowers the operator op over already lowered arguments.
func Apply(env Env, op string, args []Parameter) (Parameter, error) {
	kind, err := Resolve(op, len(args), env.Function)
	if err != nil {
		return Parameter{}, err
	}
	return lowerers[kind](env, op, args)
}

func lowerReturn(env Env, _ string, args []Parameter) (Parameter, error) {
	what := "return value of function " + env.Function
	if len(args) == 0 {
		if env.Return != types.Void {
			return Parameter{}, errors.TypeMismatch(what, env.Return.String(), string(types.Void))
		}
		return Statements("return"), nil
	}
	if err := requireValue("return", args...); err != nil {
		return Parameter{}, err
	}
	if env.Return == types.Void || !types.Compatible(env.Return, args[0].Type) {
		return Parameter{}, errors.TypeMismatch(what, env.Return.String(), args[0].Type.String())
	}
	return Statements("return " + args[0].Value), nil
}

func lowerKeyword(_ Env, op string, _ []Parameter) (Parameter, error) {
	return Statements(op), nil
}

func lowerNegate(_ Env, op string, args []Parameter) (Parameter, error) {
	x, err := scalar(op, args[0])
	if err != nil {
		return Parameter{}, err
	}
	return Value("(("+x.Value+") * (-1))", x.Type), nil
}

func lowerAddressOf(_ Env, op string, args []Parameter) (Parameter, error) {
	x := args[0]
	if err := requireValue(op, x); err != nil {
		return Parameter{}, err
	}
	if x.Type.IsPointer() {
		return x, nil
	}
	if err := requireStorage(op, x); err != nil {
		return Parameter{}, err
	}
	return Value("(&"+x.Value+")", x.Type.Pointer()), nil
}

func lowerDereference(_ Env, op string, args []Parameter) (Parameter, error) {
	x := args[0]
	if err := requireValue(op, x); err != nil {
		return Parameter{}, err
	}
	if !x.Type.IsPointer() {
		return x, nil
	}
	return Storage("(*"+x.Value+")", x.Type.Elem()), nil
}

func lowerNew(_ Env, op string, args []Parameter) (Parameter, error) {
	t := args[0]
	if t.Form != FormType || t.Type.IsPointer() || t.Type == types.Void {
		return Parameter{}, errors.InvalidOperand(op, t.String())
	}
	c := t.Type.Translate()
	return Value("(("+c+"*)malloc(sizeof("+c+")))", t.Type.Pointer()), nil
}

func lowerNot(_ Env, op string, args []Parameter) (Parameter, error) {
	x, err := operand(op, args[0])
	if err != nil {
		return Parameter{}, err
	}
	return Value("(!("+x.Value+"))", types.Int), nil
}

func lowerSizeof(_ Env, op string, args []Parameter) (Parameter, error) {
	x := args[0]
	if x.Form != FormType {
		if err := requireValue(op, x); err != nil {
			return Parameter{}, err
		}
	}
	return Value("sizeof("+x.Value+")", types.Uint), nil
}

func lowerPrefix(_ Env, op string, args []Parameter) (Parameter, error) {
	x, err := integer(op, args[0])
	if err != nil {
		return Parameter{}, err
	}
	return Value(op+"("+x.Value+")", x.Type), nil
}

func lowerArithmetic(_ Env, op string, args []Parameter) (Parameter, error) {
	t, err := promote(op, args)
	if err != nil {
		return Parameter{}, err
	}
	if t.IsPointer() {
		pointers := 0
		for _, a := range args {
			if a.Type.IsPointer() {
				pointers++
			}
		}
		if (op != "+" && op != "-") || pointers > 1 {
			return Parameter{}, errors.InvalidOperand(op, t.String())
		}
	}
	return Value(infix(op, args), t), nil
}

func lowerBitwise(_ Env, op string, args []Parameter) (Parameter, error) {
	t, err := promote(op, args)
	if err != nil {
		return Parameter{}, err
	}
	if t != types.Int && t != types.Uint {
		return Parameter{}, errors.InvalidOperand(op, t.String())
	}
	return Value(infix(op, args), t), nil
}

func lowerLogical(_ Env, op string, args []Parameter) (Parameter, error) {
	for _, a := range args {
		if _, err := operand(op, a); err != nil {
			return Parameter{}, err
		}
	}
	c := op
	if s, ok := cSpelling[op]; ok {
		c = s
	}
	return Value(infix(c, args), types.Int), nil
}

// lowerFmod folds the arguments pairwise from the left until one remains:
// fmod(a, b, c) becomes fmod(fmod(a, b), c).
func lowerFmod(_ Env, op string, args []Parameter) (Parameter, error) {
	if len(args) == 0 {
		return Raw(), nil
	}
	for _, a := range args {
		if _, err := scalar(op, a); err != nil {
			return Parameter{}, err
		}
	}
	if len(args) == 1 {
		return args[0], nil
	}
	acc := args[0].Value
	for _, a := range args[1:] {
		acc = "fmod(" + acc + ", " + a.Value + ")"
	}
	return Value(acc, types.Num), nil
}

// lowerCompare expands a chained comparison into the conjunction of its
// adjacent pairs.
func lowerCompare(_ Env, op string, args []Parameter) (Parameter, error) {
	for _, a := range args {
		if _, err := operand(op, a); err != nil {
			return Parameter{}, err
		}
	}
	pairs := make([]string, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		pairs = append(pairs, "("+args[i-1].Value+" "+op+" "+args[i].Value+")")
	}
	if len(pairs) == 1 {
		return Value(pairs[0], types.Int), nil
	}
	return Value("("+strings.Join(pairs, " && ")+")", types.Int), nil
}

func lowerAssign(env Env, op string, args []Parameter) (Parameter, error) {
	if len(args) != 2 {
		return Parameter{}, errors.WrongArity(op, env.Function, len(args), "expected two parameters")
	}
	if err := requireValue(op, args...); err != nil {
		return Parameter{}, err
	}
	target, value := args[0], args[1]
	if err := requireStorage("assignment", target); err != nil {
		return Parameter{}, err
	}
	if !types.Compatible(target.Type, value.Type) {
		return Parameter{}, errors.TypeMismatch("assignment to "+target.Value, target.Type.String(), value.Type.String())
	}
	return Value(target.Value+" = "+value.Value, target.Type), nil
}

func lowerCompound(env Env, op string, args []Parameter) (Parameter, error) {
	if len(args) != 2 {
		return Parameter{}, errors.WrongArity(op, env.Function, len(args), "expected two parameters")
	}
	if err := requireValue(op, args...); err != nil {
		return Parameter{}, err
	}
	target, value := args[0], args[1]
	if err := requireStorage(op, target); err != nil {
		return Parameter{}, err
	}
	switch {
	case target.Type.IsNumeric() && (value.Type.IsNumeric() || value.Type.IsNarrow()):
	case target.Type.IsPointer() && (op == "+=" || op == "-=") &&
		(value.Type == types.Int || value.Type == types.Uint || value.Type.IsNarrow()):
	default:
		return Parameter{}, errors.InvalidOperand(op, target.Type.String()+", "+value.Type.String())
	}
	return Value(target.Value+" "+op+" "+value.Value, target.Type), nil
}

func lowerCast(env Env, op string, args []Parameter) (Parameter, error) {
	if len(args) != 2 {
		return Parameter{}, errors.WrongArity(op, env.Function, len(args), "expected a value and a type")
	}
	if args[1].Form != FormType {
		return Parameter{}, errors.InvalidOperand(op, args[1].String())
	}
	if err := requireValue(op, args[0]); err != nil {
		return Parameter{}, err
	}
	return Cast(args[0], args[1].Type, env.Classes)
}

func infix(op string, args []Parameter) string {
	values := make([]string, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	return "(" + strings.Join(values, " "+op+" ") + ")"
}

func promote(op string, args []Parameter) (types.Type, error) {
	if err := requireValue(op, args...); err != nil {
		return types.None, err
	}
	ts := make([]types.Type, len(args))
	for i, a := range args {
		ts[i] = a.Type
	}
	t, ok := types.Promote(ts...)
	if !ok {
		return types.None, errors.InvalidOperand(op, joinTypes(ts))
	}
	return t, nil
}

// operand accepts numeric, narrow and pointer values.
func operand(op string, x Parameter) (Parameter, error) {
	if err := requireValue(op, x); err != nil {
		return Parameter{}, err
	}
	if !x.Type.IsNumeric() && !x.Type.IsNarrow() && !x.Type.IsPointer() {
		return Parameter{}, errors.InvalidOperand(op, x.Type.String())
	}
	return x, nil
}

// scalar accepts numeric and narrow values; narrow values promote to int.
func scalar(op string, x Parameter) (Parameter, error) {
	if err := requireValue(op, x); err != nil {
		return Parameter{}, err
	}
	t, ok := types.Promote(x.Type)
	if !ok || t.IsPointer() {
		return Parameter{}, errors.InvalidOperand(op, x.Type.String())
	}
	x.Type = t
	return x, nil
}

func integer(op string, x Parameter) (Parameter, error) {
	x, err := scalar(op, x)
	if err != nil {
		return Parameter{}, err
	}
	if x.Type == types.Num {
		return Parameter{}, errors.InvalidOperand(op, x.Type.String())
	}
	return x, nil
}

func joinTypes(ts []types.Type) string {
	s := make([]string, len(ts))
	for i, t := range ts {
		s[i] = t.String()
	}
	return strings.Join(s, ", ")
}
