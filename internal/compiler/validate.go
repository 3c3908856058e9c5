package compiler

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299).
const (
	ErrEmptyKey         = "E201" // schema key is empty
	ErrUnknownTarget    = "E202" // relation targets an undefined schema
	ErrRelationArity    = "E203" // relation list does not name exactly one schema
	ErrEmptyIDAttribute = "E204" // id attribute is empty
	ErrRelationOnID     = "E205" // relation property is the id attribute
	ErrDuplicateKey     = "E206" // schema key defined twice
)

// ValidationError is a schema definition error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks definitions and returns every error found.
func Validate(defs []Definition) []ValidationError {
	var errs []ValidationError

	keys := make(map[string]bool, len(defs))
	for _, def := range defs {
		if keys[def.Key] {
			errs = append(errs, ValidationError{
				Field:   "schema." + def.Key,
				Message: fmt.Sprintf("duplicate schema key %q", def.Key),
				Code:    ErrDuplicateKey,
				Line:    def.Pos.Line(),
			})
		}
		keys[def.Key] = true
	}

	for _, def := range defs {
		field := "schema." + def.Key

		if strings.TrimSpace(def.Key) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "schema key must be non-empty",
				Code:    ErrEmptyKey,
				Line:    def.Pos.Line(),
			})
		}

		if strings.TrimSpace(def.IDAttribute) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".idAttribute",
				Message: "id attribute must be non-empty",
				Code:    ErrEmptyIDAttribute,
				Line:    def.Pos.Line(),
			})
		}

		for _, rel := range def.Relations {
			relField := fmt.Sprintf("%s.relations.%s", field, rel.Property)

			if rel.Property == def.IDAttribute {
				errs = append(errs, ValidationError{
					Field:   relField,
					Message: fmt.Sprintf("relation property %q is the id attribute", rel.Property),
					Code:    ErrRelationOnID,
					Line:    rel.Pos.Line(),
				})
			}

			if len(rel.Targets) != 1 {
				errs = append(errs, ValidationError{
					Field:   relField,
					Message: fmt.Sprintf("relation list must name exactly one schema key, got %d", len(rel.Targets)),
					Code:    ErrRelationArity,
					Line:    rel.Pos.Line(),
				})
				continue
			}

			if !keys[rel.Targets[0]] {
				errs = append(errs, ValidationError{
					Field:   relField,
					Message: fmt.Sprintf("unknown schema %q", rel.Targets[0]),
					Code:    ErrUnknownTarget,
					Line:    rel.Pos.Line(),
				})
			}
		}
	}

	return errs
}
