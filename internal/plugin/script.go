package plugin

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"reflect"
	"strconv"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// allowedImports lists the packages a script plugin may import.
var allowedImports = map[string]bool{
	"errors":  true,
	"fmt":     true,
	"math":    true,
	"strconv": true,
	"strings": true,
}

// ScriptOperation is an operation interpreted from a Go source file.
//
// A script declares:
//
//	const Name = "hypot"
//	const Description = "Hypotenuse of a and b" // optional
//	func Apply(a, b float64) (float64, error)
type ScriptOperation struct {
	name string
	desc string
	fn   func(a, b float64) (float64, error)
}

func (s *ScriptOperation) Name() string        { return s.name }
func (s *ScriptOperation) Description() string { return s.desc }

func (s *ScriptOperation) Apply(a, b float64) (float64, error) {
	return s.fn(a, b)
}

// LoadScript interprets the plugin at path.
func LoadScript(path string) (*ScriptOperation, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return CompileScript(path, string(src))
}

// CompileScript interprets src; path is used for error messages.
func CompileScript(path, src string) (*ScriptOperation, error) {
	pkg, err := checkImports(path, src)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("code evaluation failed: %w", err)
	}

	nameVal, err := i.Eval(pkg + ".Name")
	if err != nil {
		return nil, fmt.Errorf("Name not found: %w", err)
	}
	if nameVal.Kind() != reflect.String || nameVal.String() == "" {
		return nil, fmt.Errorf("Name must be a non-empty string")
	}
	name := nameVal.String()

	applyVal, err := i.Eval(pkg + ".Apply")
	if err != nil {
		return nil, fmt.Errorf("Apply function not found: %w", err)
	}
	fn, ok := applyVal.Interface().(func(float64, float64) (float64, error))
	if !ok {
		return nil, fmt.Errorf("Apply has incorrect signature (expected: func(float64, float64) (float64, error))")
	}

	op := &ScriptOperation{name: name, fn: fn}
	if descVal, err := i.Eval(pkg + ".Description"); err == nil && descVal.Kind() == reflect.String {
		op.desc = descVal.String()
	}
	return op, nil
}

// checkImports parses the file header and returns its package name. Only
// packages in allowedImports may be imported.
func checkImports(path, src string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.ImportsOnly)
	if err != nil {
		return "", fmt.Errorf("parse script: %w", err)
	}

	var forbidden []string
	for _, imp := range f.Imports {
		pkg, err := strconv.Unquote(imp.Path.Value)
		if err != nil || !allowedImports[pkg] {
			forbidden = append(forbidden, imp.Path.Value)
		}
	}
	if len(forbidden) > 0 {
		return "", fmt.Errorf("forbidden imports detected: %v", forbidden)
	}
	return f.Name.Name, nil
}
