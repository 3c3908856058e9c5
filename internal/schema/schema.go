// Package schema describes entity types for normalization.
//
// An Entity names the schema key its records are stored under, the attribute
// that identifies a record, and the properties that hold related entities.
// Relations are declared either at construction (WithRelation, WithRelations)
// or afterwards with Define, which allows mutually recursive schemas.
//
// The child-key to property lookup used by child commands is computed every
// time relations change, so command construction never walks the relation
// map.
package schema

import (
	"fmt"

	"github.com/roach88/normstate/internal/ir"
)

// DefaultIDAttribute is the id attribute used when none is configured.
const DefaultIDAttribute = "id"

// Relation links a property of a record to another schema.
type Relation struct {
	// Property is the record field holding the related entity or entities.
	Property string

	// Target is the related schema.
	Target *Entity

	// Many is true when the property holds an array of entities.
	Many bool
}

// Entity is the declarative description of one entity type.
// Treat an Entity as configuration: build it once and pass the same instance
// to every command and selector touching its key.
type Entity struct {
	key         string
	idAttribute string
	relations   map[string]Relation
	order       []string            // properties in declaration order
	byChild     map[string][]string // target key -> properties, declaration order
}

// Option configures an Entity at construction.
type Option func(*Entity)

// WithIDAttribute sets the attribute identifying a record.
func WithIDAttribute(name string) Option {
	return func(e *Entity) {
		e.idAttribute = name
	}
}

// WithRelation declares a property holding a single related entity.
func WithRelation(property string, target *Entity) Option {
	return func(e *Entity) {
		e.addRelation(Relation{Property: property, Target: target})
	}
}

// WithRelations declares a property holding an array of related entities.
func WithRelations(property string, target *Entity) Option {
	return func(e *Entity) {
		e.addRelation(Relation{Property: property, Target: target, Many: true})
	}
}

// New creates an entity schema stored under key.
func New(key string, opts ...Option) *Entity {
	e := &Entity{
		key:         key,
		idAttribute: DefaultIDAttribute,
		relations:   make(map[string]Relation),
		byChild:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Define adds relations after construction. A relation for an already
// declared property replaces the previous one.
func (e *Entity) Define(relations ...Relation) *Entity {
	for _, r := range relations {
		e.addRelation(r)
	}
	return e
}

func (e *Entity) addRelation(r Relation) {
	if r.Target == nil {
		return
	}
	if _, exists := e.relations[r.Property]; !exists {
		e.order = append(e.order, r.Property)
	}
	e.relations[r.Property] = r
	e.reindex()
}

// reindex rebuilds the target key -> property descriptor.
func (e *Entity) reindex() {
	byChild := make(map[string][]string, len(e.relations))
	for _, prop := range e.order {
		r := e.relations[prop]
		byChild[r.Target.key] = append(byChild[r.Target.key], prop)
	}
	e.byChild = byChild
}

// Key returns the schema key.
func (e *Entity) Key() string {
	return e.key
}

// IDAttribute returns the name of the id attribute.
func (e *Entity) IDAttribute() string {
	return e.idAttribute
}

// Relations returns the declared relations in declaration order.
func (e *Entity) Relations() []Relation {
	out := make([]Relation, 0, len(e.order))
	for _, prop := range e.order {
		out = append(out, e.relations[prop])
	}
	return out
}

// Relation returns the relation declared on property.
func (e *Entity) Relation(property string) (Relation, bool) {
	r, ok := e.relations[property]
	return r, ok
}

// PropertyFor returns the property referencing child's key.
// When several properties reference the same key, the first declared wins.
// Returns false when no property references it.
func (e *Entity) PropertyFor(child *Entity) (string, bool) {
	if child == nil {
		return "", false
	}
	props := e.byChild[child.key]
	if len(props) == 0 {
		return "", false
	}
	return props[0], true
}

// HasRelationKey reports whether any relation targets the schema key.
func (e *Entity) HasRelationKey(key string) bool {
	return len(e.byChild[key]) > 0
}

// ID reads the id of a record.
func (e *Entity) ID(record ir.IRObject) (string, error) {
	v, ok := record[e.idAttribute]
	if !ok {
		return "", fmt.Errorf("schema %q: record has no %q attribute", e.key, e.idAttribute)
	}
	id, ok := ir.IDString(v)
	if !ok {
		return "", fmt.Errorf("schema %q: attribute %q must be a string or int, got %T", e.key, e.idAttribute, v)
	}
	return id, nil
}

// String implements fmt.Stringer.
func (e *Entity) String() string {
	return fmt.Sprintf("schema.Entity(%s)", e.key)
}
