package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/normstate/internal/schema"
)

// Definition is a parsed, not yet validated, schema definition.
type Definition struct {
	Key         string
	IDAttribute string
	Relations   []RelationDef
	Pos         token.Pos
}

// RelationDef is a parsed relation.
// Targets has exactly one element for a valid definition; Many is true when
// the target was written as a list.
type RelationDef struct {
	Property string
	Targets  []string
	Many     bool
	Pos      token.Pos
}

// CompileSchemas parses, validates and builds the schemas under the
// top-level "schema" field of v:
//
//	schema: parent: {
//	    idAttribute: "id"
//	    relations: childs: ["child"]
//	}
//	schema: child: {}
//
// A relation written as a string holds one entity; a list of one key holds
// an array of entities.
func CompileSchemas(v cue.Value) (*schema.Registry, error) {
	defs, err := ParseDefinitions(v)
	if err != nil {
		return nil, err
	}
	if errs := Validate(defs); len(errs) > 0 {
		return nil, errs[0]
	}
	return Build(defs)
}

// ParseDefinitions reads definitions in declaration order.
func ParseDefinitions(v cue.Value) ([]Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("schema"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "schema",
			Message: "no schema definitions found",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []Definition
	for iter.Next() {
		def, err := parseDefinition(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseDefinition(key string, v cue.Value) (Definition, error) {
	def := Definition{
		Key:         key,
		IDAttribute: schema.DefaultIDAttribute,
		Pos:         v.Pos(),
	}

	idVal := v.LookupPath(cue.ParsePath("idAttribute"))
	if idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return def, formatCUEError(err)
		}
		def.IDAttribute = id
	}

	relVal := v.LookupPath(cue.ParsePath("relations"))
	if !relVal.Exists() {
		return def, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return def, formatCUEError(err)
	}
	for iter.Next() {
		rel, err := parseRelation(key, iter.Label(), iter.Value())
		if err != nil {
			return def, err
		}
		def.Relations = append(def.Relations, rel)
	}
	return def, nil
}

func parseRelation(key, property string, v cue.Value) (RelationDef, error) {
	rel := RelationDef{Property: property, Pos: v.Pos()}

	switch v.IncompleteKind() {
	case cue.StringKind:
		target, err := v.String()
		if err != nil {
			return rel, formatCUEError(err)
		}
		rel.Targets = []string{target}
		return rel, nil

	case cue.ListKind:
		rel.Many = true
		list, err := v.List()
		if err != nil {
			return rel, formatCUEError(err)
		}
		for list.Next() {
			target, err := list.Value().String()
			if err != nil {
				return rel, formatCUEError(err)
			}
			rel.Targets = append(rel.Targets, target)
		}
		return rel, nil

	default:
		return rel, &CompileError{
			Field:   fmt.Sprintf("schema.%s.relations.%s", key, property),
			Message: fmt.Sprintf("relation must be a schema key or a list of one schema key, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// Build creates the schemas of validated definitions. Relations are wired
// after every schema exists, so definitions may reference each other in any
// order, including cycles.
func Build(defs []Definition) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, def := range defs {
		if err := reg.Register(schema.New(def.Key, schema.WithIDAttribute(def.IDAttribute))); err != nil {
			return nil, &CompileError{Field: "schema." + def.Key, Message: err.Error(), Pos: def.Pos}
		}
	}

	for _, def := range defs {
		parent, _ := reg.Get(def.Key)
		for _, rel := range def.Relations {
			if len(rel.Targets) != 1 {
				return nil, &CompileError{
					Field:   fmt.Sprintf("schema.%s.relations.%s", def.Key, rel.Property),
					Message: "relation list must name exactly one schema key",
					Pos:     rel.Pos,
				}
			}
			target, ok := reg.Get(rel.Targets[0])
			if !ok {
				return nil, &CompileError{
					Field:   fmt.Sprintf("schema.%s.relations.%s", def.Key, rel.Property),
					Message: fmt.Sprintf("unknown schema %q", rel.Targets[0]),
					Pos:     rel.Pos,
				}
			}
			parent.Define(schema.Relation{Property: rel.Property, Target: target, Many: rel.Many})
		}
	}
	return reg, nil
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
