package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
	"github.com/roach88/normstate/internal/selector"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates every assertion against st and returns the
// failure messages. reg resolves schemas for denormalized assertions.
func EvaluateAssertions(st *ir.State, reg *schema.Registry, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEntityExists:
			err = assertEntityExists(st, a)
		case AssertEntityAbsent:
			err = assertEntityAbsent(st, a)
		case AssertEntityFields:
			err = assertEntityFields(st, a)
		case AssertResult:
			err = assertResult(st, a)
		case AssertRelation:
			err = assertRelation(st, a)
		case AssertDenormalized:
			err = assertDenormalized(st, reg, a)
		case AssertCount:
			err = assertCount(st, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func assertEntityExists(st *ir.State, a Assertion) error {
	if _, ok := st.Entities.Get(a.Schema, a.ID); !ok {
		return &AssertionError{
			Type:     AssertEntityExists,
			Expected: fmt.Sprintf("%s %q stored", a.Schema, a.ID),
			Actual:   "not found",
		}
	}
	return nil
}

func assertEntityAbsent(st *ir.State, a Assertion) error {
	if rec, ok := st.Entities.Get(a.Schema, a.ID); ok {
		return &AssertionError{
			Type:     AssertEntityAbsent,
			Expected: fmt.Sprintf("%s %q absent", a.Schema, a.ID),
			Actual:   fmt.Sprintf("found %s", formatValue(rec)),
		}
	}
	return nil
}

func assertEntityFields(st *ir.State, a Assertion) error {
	rec, ok := st.Entities.Get(a.Schema, a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertEntityFields,
			Expected: fmt.Sprintf("%s %q with fields %v", a.Schema, a.ID, a.Fields),
			Actual:   "not found",
		}
	}
	expected, err := ir.FromAny(a.Fields)
	if err != nil {
		return fmt.Errorf("%s: fields: %w", AssertEntityFields, err)
	}
	if !matchSubset(rec, expected) {
		return &AssertionError{
			Type:     AssertEntityFields,
			Expected: formatValue(expected),
			Actual:   formatValue(rec),
		}
	}
	return nil
}

func assertResult(st *ir.State, a Assertion) error {
	if !equalIDs(st.Result, a.IDs) {
		return &AssertionError{
			Type:     AssertResult,
			Expected: fmt.Sprintf("%v", a.IDs),
			Actual:   fmt.Sprintf("%v", st.Result),
		}
	}
	return nil
}

func assertRelation(st *ir.State, a Assertion) error {
	rec, ok := st.Entities.Get(a.Schema, a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertRelation,
			Expected: fmt.Sprintf("%s %q with %s %v", a.Schema, a.ID, a.Property, a.IDs),
			Actual:   "not found",
		}
	}
	got := ir.IDList(rec[a.Property])
	if !equalIDs(got, a.IDs) {
		return &AssertionError{
			Type:     AssertRelation,
			Expected: fmt.Sprintf("%s.%s = %v", a.ID, a.Property, a.IDs),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertDenormalized(st *ir.State, reg *schema.Registry, a Assertion) error {
	ent, ok := reg.Get(a.Schema)
	if !ok {
		return fmt.Errorf("%s: unknown schema %q", AssertDenormalized, a.Schema)
	}
	sel := selector.CreateSchemaSelectors(ent)
	got, ok := sel.EntityProjector(selector.GetNormalizedEntities(st), a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertDenormalized,
			Expected: fmt.Sprintf("%s %q denormalized", a.Schema, a.ID),
			Actual:   "not found",
		}
	}
	expected, err := ir.FromAny(a.Expect)
	if err != nil {
		return fmt.Errorf("%s: expect: %w", AssertDenormalized, err)
	}
	if !matchSubset(got, expected) {
		return &AssertionError{
			Type:     AssertDenormalized,
			Expected: formatValue(expected),
			Actual:   formatValue(got),
		}
	}
	return nil
}

func assertCount(st *ir.State, a Assertion) error {
	got := len(st.Entities[a.Schema])
	if got != *a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s records", *a.Count, a.Schema),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// matchSubset reports whether actual contains expected. Objects match when
// every expected key is present with a matching value; extra keys in actual
// are ignored. Arrays match element by element and must have the same
// length. Scalars must be equal.
func matchSubset(actual, expected ir.IRValue) bool {
	switch exp := expected.(type) {
	case ir.IRObject:
		act, ok := actual.(ir.IRObject)
		if !ok {
			return false
		}
		for key, ev := range exp {
			av, exists := act[key]
			if !exists || !matchSubset(av, ev) {
				return false
			}
		}
		return true
	case ir.IRArray:
		act, ok := actual.(ir.IRArray)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchSubset(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return ir.Equal(actual, expected)
	}
}

// equalIDs treats nil and empty lists as equal.
func equalIDs(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}

// maxFormatDepth bounds formatValue, since denormalized graphs may be cyclic.
const maxFormatDepth = 4

func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(ir.Truncate(v, maxFormatDepth))
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return string(data)
}
