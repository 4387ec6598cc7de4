package main

import (
	"os"
	"strings"

	"github.com/benbjohnson/clari"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Problem is a set of symbol declarations and assertions over them.
type Problem struct {
	Symbols    map[string]*clari.Expr
	Assertions []*clari.Expr

	// Expressions whose model values are reported by the check command.
	Eval []*clari.Expr
}

type problemFile struct {
	Symbols    []symbolDecl `yaml:"symbols"`
	Assertions []string     `yaml:"assertions"`
	Eval       []string     `yaml:"eval"`
}

type symbolDecl struct {
	Name string `yaml:"name"`
	Sort string `yaml:"sort"`
	Size uint   `yaml:"size"`
}

var sortsByName = map[string]clari.Sort{
	"bool":   clari.SortBool,
	"bv":     clari.SortBV,
	"fp":     clari.SortFP,
	"string": clari.SortString,
}

// ReadProblemFile reads and builds the problem stored at path.
func ReadProblemFile(f *clari.Factory, path string) (*Problem, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read problem")
	}
	problem, err := ParseProblem(f, buf)
	if err != nil {
		return nil, errors.Wrapf(err, "problem %s", path)
	}
	return problem, nil
}

// ParseProblem builds a problem from its YAML encoding.
func ParseProblem(f *clari.Factory, buf []byte) (*Problem, error) {
	var pf problemFile
	if err := yaml.Unmarshal(buf, &pf); err != nil {
		return nil, errors.Wrap(err, "parse yaml")
	}

	p := &Problem{Symbols: make(map[string]*clari.Expr)}
	for _, decl := range pf.Symbols {
		sort, ok := sortsByName[strings.ToLower(decl.Sort)]
		if !ok {
			return nil, errors.Wrapf(clari.ErrUsage, "symbol %s: unknown sort %q", decl.Name, decl.Sort)
		} else if _, ok := p.Symbols[decl.Name]; ok {
			return nil, errors.Wrapf(clari.ErrUsage, "symbol %s: declared twice", decl.Name)
		}

		e, err := f.Symbol(decl.Name, sort, decl.Size)
		if err != nil {
			return nil, err
		}
		p.Symbols[decl.Name] = e
	}

	parser := NewParser(f, p.Symbols)
	for i, s := range pf.Assertions {
		e, err := parser.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "assertion %d", i)
		} else if e.Sort() != clari.SortBool {
			return nil, errors.Wrapf(clari.ErrType, "assertion %d: %s expression", i, e.Sort())
		}
		p.Assertions = append(p.Assertions, e)
	}
	for i, s := range pf.Eval {
		e, err := parser.Parse(s)
		if err != nil {
			return nil, errors.Wrapf(err, "eval %d", i)
		}
		p.Eval = append(p.Eval, e)
	}
	return p, nil
}
