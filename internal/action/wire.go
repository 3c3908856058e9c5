package action

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/normstate/internal/ir"
)

// ErrUnknownType is returned by Unmarshal for a type outside Types.
var ErrUnknownType = errors.New("unknown command type")

// envelope is the wire form of a command.
type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Payload returns the wire payload of a known command.
func Payload(cmd Command) (any, error) {
	switch c := cmd.(type) {
	case *SetData:
		return c.Payload, nil
	case *AddData:
		return c.Payload, nil
	case *AddChildData:
		return c.Payload, nil
	case *UpdateData:
		return c.Payload, nil
	case *RemoveData:
		return c.Payload, nil
	case *RemoveChildData:
		return c.Payload, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cmd.Type())
	}
}

// Marshal encodes a command as {"type": ..., "payload": ...}.
func Marshal(cmd Command) ([]byte, error) {
	payload, err := Payload(cmd)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", cmd.Type(), err)
	}
	return json.Marshal(envelope{Type: cmd.Type(), Payload: raw})
}

// Unmarshal decodes a command written by Marshal.
func Unmarshal(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}

	var (
		cmd    Command
		target any
	)
	switch env.Type {
	case TypeSetData:
		c := &SetData{}
		cmd, target = c, &c.Payload
	case TypeAddData:
		c := &AddData{}
		cmd, target = c, &c.Payload
	case TypeAddChildData:
		c := &AddChildData{}
		cmd, target = c, &c.Payload
	case TypeUpdateData:
		c := &UpdateData{}
		cmd, target = c, &c.Payload
	case TypeRemoveData:
		c := &RemoveData{}
		cmd, target = c, &c.Payload
	case TypeRemoveChildData:
		c := &RemoveChildData{}
		cmd, target = c, &c.Payload
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("decode %s: missing payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return cmd, nil
}

// Hash returns the content hash of a command's type and payload.
// Equal commands hash equally regardless of how their maps were built.
func Hash(cmd Command) (string, error) {
	payload, err := Payload(cmd)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", cmd.Type(), err)
	}
	v, err := ir.UnmarshalIRValue(raw)
	if err != nil {
		return "", fmt.Errorf("convert %s payload: %w", cmd.Type(), err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return "", fmt.Errorf("%s payload is not an object", cmd.Type())
	}
	return ir.CommandHash(string(cmd.Type()), obj)
}
