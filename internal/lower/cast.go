package lower

import (
	"github.com/koberi-lang/koberic/internal/errors"
	"github.com/koberi-lang/koberic/internal/types"
)

// Cast converts v to target.
//
//   - identity: v is returned unchanged
//   - numeric or character to numeric or character: ((T)v)
//   - pointer to pointer: ((T*)(void *)v)
//   - between classes related by inheritance: (*((T*)((void *)&(v)))), an aliased
//     view of the same storage; layouts share a common prefix so the view is valid
//
// Anything else is an invalid cast.
func Cast(v Parameter, target types.Type, classes Hierarchy) (Parameter, error) {
	src := v.Type
	switch {
	case src == target:
		return v, nil

	case isScalar(src) && isScalar(target):
		return Value("(("+target.Translate()+")"+v.Value+")", target), nil

	case src.IsPointer() && target.IsPointer():
		return Value("(("+target.Translate()+")(void *)"+v.Value+")", target), nil

	case src.IsClass() && target.IsClass() && classes != nil && classes.IsRelated(string(src), string(target)):
		if err := requireStorage("cast to "+target.String(), v); err != nil {
			return Parameter{}, err
		}
		value := "&(" + v.Value + ")"
		value = "((void *)" + value + ")"
		value = "((" + target.Translate() + "*)" + value + ")"
		value = "(*" + value + ")"
		return Storage(value, target), nil

	default:
		return Parameter{}, errors.InvalidCast(src.String(), target.String())
	}
}

func isScalar(t types.Type) bool {
	return t.IsNumeric() || t.IsNarrow()
}

// Receiver returns the pointer passed as the self argument of a method declared on
// owner, for a receiver value whose class is owner or one of its descendants.
func Receiver(v Parameter, owner string) (string, error) {
	if err := requireStorage("receiver of a method of "+owner, v); err != nil {
		return "", err
	}
	addr := "&(" + v.Value + ")"
	if string(v.Type) == owner {
		return addr, nil
	}
	return "((" + owner + " *)((void *)" + addr + "))", nil
}
