// Package errors provides standardized error messaging for koberic
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/koberi-lang/koberic/internal/position"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryType           ErrorCategory = "TYPE"
	CategoryNameResolution ErrorCategory = "NAME_RESOLUTION"
	CategoryRedefinition   ErrorCategory = "REDEFINITION"
	CategoryStructural     ErrorCategory = "STRUCTURAL"
	CategoryArity          ErrorCategory = "ARITY"
	CategorySystem         ErrorCategory = "SYSTEM"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
	Pos      position.Position
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Code, e.Pos, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Detail renders the error together with its context and the function that raised it.
func (e *StandardError) Detail() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "\n  %s: %v", k, e.Context[k])
		}
	}
	fmt.Fprintf(&sb, "\n  (caller: %s)", e.Caller)
	return sb.String()
}

// At attaches a source position unless one is already present.
func (e *StandardError) At(pos position.Position) *StandardError {
	if !e.Pos.IsValid() && pos.IsValid() {
		e.Pos = pos
	}
	return e
}

func newError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   callerName(3),
	}
}

// callerName walks frames rather than using FuncForPC so inlined constructors still report
// the function that raised the error.
func callerName(skip int) string {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) == 0 {
		return "unknown"
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	if frame.Function == "" {
		return "unknown"
	}
	return frame.Function
}

// IsCategory reports whether err, or any error it wraps, is a StandardError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Category == category
	}
	return false
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) string {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Type errors

func TypeMismatch(what, expected, got string) *StandardError {
	return newError(CategoryType, "TYPE_MISMATCH",
		fmt.Sprintf("type mismatch in %s. Expected: %s Got: %s", what, expected, got),
		map[string]interface{}{"expected": expected, "got": got})
}

func InvalidCast(from, to string) *StandardError {
	return newError(CategoryType, "INVALID_CAST",
		fmt.Sprintf("invalid cast from %s to %s", from, to),
		map[string]interface{}{"from": from, "to": to})
}

func NonNumericCondition(construct, got string) *StandardError {
	return newError(CategoryType, "NON_NUMERIC_CONDITION",
		fmt.Sprintf("condition of %s must be of numerical type, got %s", construct, got),
		map[string]interface{}{"construct": construct, "got": got})
}

func InvalidOperand(operator, typ string) *StandardError {
	return newError(CategoryType, "INVALID_OPERAND",
		fmt.Sprintf("operator %s cannot be applied to a value of type %s", operator, typ),
		map[string]interface{}{"operator": operator, "type": typ})
}

func Unprintable(typ string) *StandardError {
	return newError(CategoryType, "UNPRINTABLE",
		fmt.Sprintf("print cannot write a value of type %s", typ),
		map[string]interface{}{"type": typ})
}

func InvalidInlineC(value string) *StandardError {
	return newError(CategoryType, "INVALID_INLINE_C",
		fmt.Sprintf("inline C accepts string literals only, got %s", value),
		map[string]interface{}{"value": value})
}

// Name resolution errors

func UndeclaredFunction(signature string) *StandardError {
	return newError(CategoryNameResolution, "UNDECLARED_FUNCTION",
		fmt.Sprintf("call to undeclared function %s", signature),
		map[string]interface{}{"signature": signature})
}

func UndeclaredMethod(signature, class string) *StandardError {
	return newError(CategoryNameResolution, "UNDECLARED_METHOD",
		fmt.Sprintf("class %s has no method %s", class, signature),
		map[string]interface{}{"signature": signature, "class": class})
}

func UndefinedVariable(name string) *StandardError {
	return newError(CategoryNameResolution, "UNDEFINED_VARIABLE",
		fmt.Sprintf("undefined variable %s", name),
		map[string]interface{}{"name": name})
}

func UndefinedClass(name string) *StandardError {
	return newError(CategoryNameResolution, "UNDEFINED_CLASS",
		fmt.Sprintf("undefined class %s", name),
		map[string]interface{}{"name": name})
}

func UndefinedType(name string) *StandardError {
	return newError(CategoryNameResolution, "UNDEFINED_TYPE",
		fmt.Sprintf("unknown type %s", name),
		map[string]interface{}{"name": name})
}

func NoSuchMember(member, class string) *StandardError {
	return newError(CategoryNameResolution, "NO_SUCH_MEMBER",
		fmt.Sprintf("class %s has no attribute %s", class, member),
		map[string]interface{}{"member": member, "class": class})
}

func NotAClass(id string) *StandardError {
	return newError(CategoryNameResolution, "NOT_A_CLASS",
		fmt.Sprintf("%s is not a class", id),
		map[string]interface{}{"id": id})
}

// Redefinition errors

func RedefinedClass(name string) *StandardError {
	return newError(CategoryRedefinition, "REDEFINED_CLASS",
		fmt.Sprintf("redefinition of class %s", name),
		map[string]interface{}{"name": name})
}

func RedefinedAttribute(attribute, class string) *StandardError {
	return newError(CategoryRedefinition, "REDEFINED_ATTRIBUTE",
		fmt.Sprintf("redefinition of attribute %s in class %s", attribute, class),
		map[string]interface{}{"attribute": attribute, "class": class})
}

func RedefinedVariable(name string) *StandardError {
	return newError(CategoryRedefinition, "REDEFINED_VARIABLE",
		fmt.Sprintf("redefinition of variable %s", name),
		map[string]interface{}{"name": name})
}

func RedefinedFunction(signature, mangled string) *StandardError {
	return newError(CategoryRedefinition, "REDEFINED_FUNCTION",
		fmt.Sprintf("redefinition of %s (mangled %s)", signature, mangled),
		map[string]interface{}{"signature": signature, "mangled": mangled})
}

func ShadowedType(name string) *StandardError {
	return newError(CategoryRedefinition, "SHADOWED_TYPE",
		fmt.Sprintf("variable %s would hide the type of the same name", name),
		map[string]interface{}{"name": name})
}

// Structural errors

func MissingEntry(name string) *StandardError {
	return newError(CategoryStructural, "MISSING_ENTRY",
		fmt.Sprintf("no entry function %s() was found", name),
		map[string]interface{}{"entry": name})
}

func InvalidEntry(name, reason string) *StandardError {
	return newError(CategoryStructural, "INVALID_ENTRY",
		fmt.Sprintf("invalid entry function %s: %s", name, reason),
		map[string]interface{}{"entry": name})
}

func InvalidStatement(function, kind string) *StandardError {
	return newError(CategoryStructural, "INVALID_STATEMENT",
		fmt.Sprintf("invalid %s statement in function %s", kind, function),
		map[string]interface{}{"function": function, "kind": kind})
}

func InvalidAttributeAccess(function, reason string) *StandardError {
	return newError(CategoryStructural, "INVALID_ATTRIBUTE_ACCESS",
		fmt.Sprintf("invalid attribute access in function %s: %s", function, reason),
		map[string]interface{}{"function": function})
}

func InvalidIdentifier(id string) *StandardError {
	return newError(CategoryStructural, "INVALID_IDENTIFIER",
		fmt.Sprintf("invalid identifier %q", id),
		map[string]interface{}{"id": id})
}

func MisplacedConstruct(construct string) *StandardError {
	return newError(CategoryStructural, "MISPLACED_CONSTRUCT",
		fmt.Sprintf("%s must directly follow an if or elif block", construct),
		map[string]interface{}{"construct": construct})
}

func NonConstantInitializer(name string) *StandardError {
	return newError(CategoryStructural, "NON_CONSTANT_INITIALIZER",
		fmt.Sprintf("global variable %s must be initialized with a literal", name),
		map[string]interface{}{"name": name})
}

func NotAddressable(what, operand string) *StandardError {
	return newError(CategoryStructural, "NOT_ADDRESSABLE",
		fmt.Sprintf("%s needs a variable, attribute or dereferenced pointer, got %s", what, operand),
		map[string]interface{}{"what": what, "operand": operand})
}

func NotAValue(what string) *StandardError {
	return newError(CategoryStructural, "NOT_A_VALUE",
		fmt.Sprintf("%s does not produce a value", what),
		map[string]interface{}{"what": what})
}

func InvalidLayout(class, reason string) *StandardError {
	return newError(CategoryStructural, "INVALID_LAYOUT",
		fmt.Sprintf("invalid layout of class %s: %s", class, reason),
		map[string]interface{}{"class": class})
}

func UnsupportedVersion(version, constraint string) *StandardError {
	return newError(CategoryStructural, "UNSUPPORTED_VERSION",
		fmt.Sprintf("language version %s does not satisfy %s", version, constraint),
		map[string]interface{}{"version": version, "constraint": constraint})
}

// Arity errors

func WrongArity(name, function string, got int, reason string) *StandardError {
	return newError(CategoryArity, "WRONG_ARITY",
		fmt.Sprintf("invalid call to %s in function %s: %s (got %d)", name, function, reason, got),
		map[string]interface{}{"name": name, "function": function, "got": got})
}

// System errors

func FileNotOpened(path string, cause error) *StandardError {
	return newError(CategorySystem, "FILE_NOT_OPENED",
		fmt.Sprintf("failed to open %s: %v", path, cause),
		map[string]interface{}{"path": path})
}

func FileNotCreated(path string, cause error) *StandardError {
	return newError(CategorySystem, "FILE_NOT_CREATED",
		fmt.Sprintf("failed to create %s: %v", path, cause),
		map[string]interface{}{"path": path})
}

func MalformedInput(path string, cause error) *StandardError {
	return newError(CategorySystem, "MALFORMED_INPUT",
		fmt.Sprintf("failed to decode %s: %v", path, cause),
		map[string]interface{}{"path": path})
}
