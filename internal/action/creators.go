package action

import (
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
)

// Creators builds commands bound to one schema.
type Creators struct {
	schema *schema.Entity
}

// NewCreators returns command creators bound to s.
func NewCreators(s *schema.Entity) *Creators {
	return &Creators{schema: s}
}

// SetData builds a SetData command for data.
func (c *Creators) SetData(data ir.IRValue) (*SetData, error) {
	return NewSetData(data, c.schema)
}

// AddData builds an AddData command for data.
func (c *Creators) AddData(data ir.IRValue) (*AddData, error) {
	return NewAddData(data, c.schema)
}

// AddChildData adds data of childSchema as children of the bound schema's
// record parentID.
func (c *Creators) AddChildData(data ir.IRValue, childSchema *schema.Entity, parentID string) (*AddChildData, error) {
	return NewAddChildData(data, childSchema, c.schema, parentID)
}

// UpdateData merges changes into the bound schema's record id.
func (c *Creators) UpdateData(id string, changes ir.IRObject) (*UpdateData, error) {
	return NewUpdateData(id, c.schema, changes)
}

// RemoveData removes the bound schema's record id.
func (c *Creators) RemoveData(id string, removeChildren SchemaMap) *RemoveData {
	return NewRemoveData(id, c.schema, removeChildren)
}

// RemoveChildData removes the child id of childSchema from the bound
// schema's record parentID.
func (c *Creators) RemoveChildData(id string, childSchema *schema.Entity, parentID string) *RemoveChildData {
	return NewRemoveChildData(id, childSchema, c.schema, parentID)
}
