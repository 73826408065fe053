package resolver

// Context is the compilation context of one translation. The class and signature
// tables are filled before emission starts and only read afterwards; the symbol
// table is the single structure mutated while function bodies are lowered.
type Context struct {
	Classes    *ClassTable
	Signatures *SignatureTable
	Symbols    *SymbolTable
}

// NewContext creates an empty context for a program declaring the given classes.
func NewContext(classNames []string) *Context {
	return &Context{
		Classes:    NewClassTable(classNames),
		Signatures: NewSignatureTable(),
		Symbols:    NewSymbolTable(),
	}
}
