// Package script provides the bundled interpreter backing the script action.
//
// Scripts are Go snippets evaluated by yaegi against an allow-listed symbol
// set; there is no access to the process environment, the file system or the
// network. The execution's variables map is exposed as flow.Vars and log
// lines are appended through flow.Log.
package script

import (
	"context"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Language identifies the bundled engine.
const Language = "go"

// allowedPackages is the stdlib subset scripts may use.
var allowedPackages = []string{
	"fmt/fmt",
	"math/math",
	"sort/sort",
	"strconv/strconv",
	"strings/strings",
	"time/time",
}

// Engine evaluates Go-language scripts. A fresh interpreter is built per run
// so one script cannot leak declarations into another.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Language() string {
	return Language
}

func (e *Engine) Run(ctx context.Context, source string, vars map[string]any, logFn func(message string)) error {
	if logFn == nil {
		logFn = func(string) {}
	}

	i := interp.New(interp.Options{})

	symbols := interp.Exports{
		"flow/flow": {
			"Vars": reflect.ValueOf(vars),
			"Log":  reflect.ValueOf(logFn),
			"Get": reflect.ValueOf(func(name string) any {
				return vars[name]
			}),
			"Set": reflect.ValueOf(func(name string, value any) {
				vars[name] = value
			}),
		},
	}

	for _, pkg := range allowedPackages {
		if exports, ok := stdlib.Symbols[pkg]; ok {
			symbols[pkg] = exports
		}
	}

	// yaegi compiles its embedded generic stdlib sources during Use, and on
	// Go 1.21 the slices source imports math/bits; without these symbols Use
	// fails before any script runs.
	if exports, ok := stdlib.Symbols["math/bits/bits"]; ok {
		symbols["math/bits/bits"] = exports
	}

	if err := i.Use(symbols); err != nil {
		return fmt.Errorf("failed to bind script symbols: %w", err)
	}

	i.ImportUsed()

	if _, err := i.EvalWithContext(ctx, source); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}

	return nil
}
