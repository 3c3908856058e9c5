package harness

import (
	"fmt"

	"github.com/roach88/normstate/internal/action"
	"github.com/roach88/normstate/internal/ir"
	"github.com/roach88/normstate/internal/schema"
)

// Step operations.
const (
	OpSet         = "set"
	OpAdd         = "add"
	OpAddChild    = "add_child"
	OpUpdate      = "update"
	OpRemove      = "remove"
	OpRemoveChild = "remove_child"
)

// Step is one command written in its denormalized form. Schema is the
// schema the command is bound to; for add_child and remove_child it is the
// parent schema and ChildSchema names the child.
//
//   - op: add_child
//     schema: parent
//     child_schema: child
//     parent_id: "1"
//     data: {id: "3"}
type Step struct {
	Op             string            `yaml:"op" json:"op"`
	Schema         string            `yaml:"schema" json:"schema"`
	Data           any               `yaml:"data,omitempty" json:"data,omitempty"`
	ID             string            `yaml:"id,omitempty" json:"id,omitempty"`
	Changes        map[string]any    `yaml:"changes,omitempty" json:"changes,omitempty"`
	ChildSchema    string            `yaml:"child_schema,omitempty" json:"child_schema,omitempty"`
	ParentID       string            `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	RemoveChildren map[string]string `yaml:"remove_children,omitempty" json:"remove_children,omitempty"`
}

// Validate checks that the fields required by the op are present.
func (s Step) Validate() error {
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	switch s.Op {
	case OpSet, OpAdd:
		if s.Data == nil {
			return fmt.Errorf("data is required for %s", s.Op)
		}
	case OpAddChild:
		if s.Data == nil {
			return fmt.Errorf("data is required for add_child")
		}
		if s.ChildSchema == "" || s.ParentID == "" {
			return fmt.Errorf("child_schema and parent_id are required for add_child")
		}
	case OpUpdate:
		if s.ID == "" {
			return fmt.Errorf("id is required for update")
		}
		if s.Changes == nil {
			return fmt.Errorf("changes is required for update")
		}
	case OpRemove:
		if s.ID == "" {
			return fmt.Errorf("id is required for remove")
		}
	case OpRemoveChild:
		if s.ID == "" {
			return fmt.Errorf("id is required for remove_child")
		}
		if s.ChildSchema == "" || s.ParentID == "" {
			return fmt.Errorf("child_schema and parent_id are required for remove_child")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Command builds the command for s, resolving schema keys in reg.
func (s Step) Command(reg *schema.Registry) (action.Command, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ent, err := lookup(reg, s.Schema)
	if err != nil {
		return nil, err
	}
	c := action.NewCreators(ent)

	switch s.Op {
	case OpSet:
		data, err := ir.FromAny(s.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		cmd, err := c.SetData(data)
		if err != nil {
			return nil, err
		}
		return cmd, nil

	case OpAdd:
		data, err := ir.FromAny(s.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		cmd, err := c.AddData(data)
		if err != nil {
			return nil, err
		}
		return cmd, nil

	case OpAddChild:
		child, err := lookup(reg, s.ChildSchema)
		if err != nil {
			return nil, err
		}
		data, err := ir.FromAny(s.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		cmd, err := c.AddChildData(data, child, s.ParentID)
		if err != nil {
			return nil, err
		}
		return cmd, nil

	case OpUpdate:
		v, err := ir.FromAny(s.Changes)
		if err != nil {
			return nil, fmt.Errorf("changes: %w", err)
		}
		cmd, err := c.UpdateData(s.ID, v.(ir.IRObject))
		if err != nil {
			return nil, err
		}
		return cmd, nil

	case OpRemove:
		return c.RemoveData(s.ID, action.SchemaMap(s.RemoveChildren)), nil

	default: // OpRemoveChild
		child, err := lookup(reg, s.ChildSchema)
		if err != nil {
			return nil, err
		}
		return c.RemoveChildData(s.ID, child, s.ParentID), nil
	}
}

func lookup(reg *schema.Registry, key string) (*schema.Entity, error) {
	ent, ok := reg.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", key)
	}
	return ent, nil
}
