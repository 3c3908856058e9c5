// Package action defines the commands folded by the normalizing reducer.
//
// Every command is built against a schema and normalizes its input eagerly
// at construction, so the reducer only ever sees flat payloads. Payloads are
// JSON-safe and match the wire shapes written by Marshal.
package action

import (
	"fmt"

	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/normalize"
	"github.com/roach88/normstate/internal/schema"
)

// Namespace prefixes every command type.
const Namespace = "[@@Normalize]"

// Type identifies a command kind.
type Type string

// Command types.
const (
	TypeSetData         Type = Namespace + " Set Data"
	TypeAddData         Type = Namespace + " Add Data"
	TypeAddChildData    Type = Namespace + " Add Child Data"
	TypeUpdateData      Type = Namespace + " Update Data"
	TypeRemoveData      Type = Namespace + " Remove Data"
	TypeRemoveChildData Type = Namespace + " Remove Child Data"
)

// Types lists every command type in declaration order.
var Types = []Type{
	TypeSetData,
	TypeAddData,
	TypeAddChildData,
	TypeUpdateData,
	TypeRemoveData,
	TypeRemoveChildData,
}

// Command is implemented by every command.
// Foreign commands may implement it too; the reducer ignores types it does
// not know.
type Command interface {
	Type() Type
}

// SchemaMap maps a child schema key to the property of the removed record
// that references children of that key.
type SchemaMap map[string]string

// EntitiesPayload carries a normalization result.
type EntitiesPayload struct {
	Entities ir.EntityMap `json:"entities"`
	Result   []string     `json:"result"`
}

// ChildPayload carries a normalization result plus the parent to link to.
// ParentProperty is empty when the parent schema has no relation to the
// child schema.
type ChildPayload struct {
	Entities        ir.EntityMap `json:"entities"`
	Result          []string     `json:"result"`
	ParentSchemaKey string       `json:"parentSchemaKey"`
	ParentProperty  string       `json:"parentProperty"`
	ParentID        string       `json:"parentId"`
}

// UpdatePayload carries the normalized changes for one record.
type UpdatePayload struct {
	ID      string       `json:"id"`
	Key     string       `json:"key"`
	Changes ir.EntityMap `json:"changes"`
	Result  []string     `json:"result"`
}

// RemovePayload names one record to remove and, optionally, which of its
// children to remove with it.
type RemovePayload struct {
	ID             string    `json:"id"`
	Key            string    `json:"key"`
	RemoveChildren SchemaMap `json:"removeChildren"`
}

// RemoveChildPayload names a child record and the parent link to drop.
type RemoveChildPayload struct {
	ID              string `json:"id"`
	ChildSchemaKey  string `json:"childSchemaKey"`
	ParentSchemaKey string `json:"parentSchemaKey"`
	ParentProperty  string `json:"parentProperty"`
	ParentID        string `json:"parentId"`
}

// SetData replaces the entities of every schema key it carries.
type SetData struct {
	Payload EntitiesPayload
}

// Type implements Command.
func (*SetData) Type() Type { return TypeSetData }

// AddData merges entities into the state.
type AddData struct {
	Payload EntitiesPayload
}

// Type implements Command.
func (*AddData) Type() Type { return TypeAddData }

// AddChildData merges child entities and links them to a parent record.
type AddChildData struct {
	Payload ChildPayload
}

// Type implements Command.
func (*AddChildData) Type() Type { return TypeAddChildData }

// UpdateData merges partial changes into one record and its relations.
type UpdateData struct {
	Payload UpdatePayload
}

// Type implements Command.
func (*UpdateData) Type() Type { return TypeUpdateData }

// RemoveData removes one record.
type RemoveData struct {
	Payload RemovePayload
}

// Type implements Command.
func (*RemoveData) Type() Type { return TypeRemoveData }

// RemoveChildData removes a child record and its reference on the parent.
type RemoveChildData struct {
	Payload RemoveChildPayload
}

// Type implements Command.
func (*RemoveChildData) Type() Type { return TypeRemoveChildData }

// NewSetData normalizes data against s into a SetData command.
func NewSetData(data ir.IRValue, s *schema.Entity) (*SetData, error) {
	res, err := normalize.Normalize(data, s)
	if err != nil {
		return nil, fmt.Errorf("set data: %w", err)
	}
	return &SetData{Payload: EntitiesPayload{Entities: res.Entities, Result: res.Result}}, nil
}

// NewAddData normalizes data against s into an AddData command.
func NewAddData(data ir.IRValue, s *schema.Entity) (*AddData, error) {
	res, err := normalize.Normalize(data, s)
	if err != nil {
		return nil, fmt.Errorf("add data: %w", err)
	}
	return &AddData{Payload: EntitiesPayload{Entities: res.Entities, Result: res.Result}}, nil
}

// NewAddChildData normalizes data against childSchema and targets the parent
// record parentID of parentSchema. The parent property is resolved from
// parentSchema's relations; if none references childSchema it is left empty
// and the reducer only merges the children.
func NewAddChildData(data ir.IRValue, childSchema, parentSchema *schema.Entity, parentID string) (*AddChildData, error) {
	res, err := normalize.Normalize(data, childSchema)
	if err != nil {
		return nil, fmt.Errorf("add child data: %w", err)
	}
	prop, _ := parentSchema.PropertyFor(childSchema)
	return &AddChildData{Payload: ChildPayload{
		Entities:        res.Entities,
		Result:          res.Result,
		ParentSchemaKey: parentSchema.Key(),
		ParentProperty:  prop,
		ParentID:        parentID,
	}}, nil
}

// NewUpdateData normalizes changes for the record id of s. The id attribute
// of changes is forced to id before normalizing.
func NewUpdateData(id string, s *schema.Entity, changes ir.IRObject) (*UpdateData, error) {
	rec := changes.Clone()
	if rec == nil {
		rec = ir.IRObject{}
	}
	rec[s.IDAttribute()] = ir.IRString(id)

	res, err := normalize.Normalize(rec, s)
	if err != nil {
		return nil, fmt.Errorf("update data: %w", err)
	}
	return &UpdateData{Payload: UpdatePayload{
		ID:      id,
		Key:     s.Key(),
		Changes: res.Entities,
		Result:  res.Result,
	}}, nil
}

// NewRemoveData removes the record id of s. Entries of removeChildren whose
// key is not a relation target of s are dropped; if none remain the command
// removes only the record itself.
func NewRemoveData(id string, s *schema.Entity, removeChildren SchemaMap) *RemoveData {
	var filtered SchemaMap
	for key, prop := range removeChildren {
		if !s.HasRelationKey(key) {
			continue
		}
		if filtered == nil {
			filtered = SchemaMap{}
		}
		filtered[key] = prop
	}
	return &RemoveData{Payload: RemovePayload{ID: id, Key: s.Key(), RemoveChildren: filtered}}
}

// NewRemoveChildData removes the child id of childSchema and its reference
// on the parent record parentID of parentSchema.
func NewRemoveChildData(id string, childSchema, parentSchema *schema.Entity, parentID string) *RemoveChildData {
	prop, _ := parentSchema.PropertyFor(childSchema)
	return &RemoveChildData{Payload: RemoveChildPayload{
		ID:              id,
		ChildSchemaKey:  childSchema.Key(),
		ParentSchemaKey: parentSchema.Key(),
		ParentProperty:  prop,
		ParentID:        parentID,
	}}
}
