package evaluator

import (
	"time"

	"github.com/babyman/lox/internal/object"
)

// registerNatives installs the small set of natively-implemented globals
// available to every lox program.
func registerNatives(globals *object.Environment) {
	globals.Define("clock", &object.NativeFunction{
		Name: "clock",
		N:    0,
		Fn: func(args []object.Object) (object.Object, error) {
			return &object.Number{Value: float64(time.Now().UnixNano()) / float64(time.Second)}, nil
		},
	})
}
