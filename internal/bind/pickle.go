package bind

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
	"gopkg.in/yaml.v3"
)

type pickleSpec struct {
	get *Function
	set *Function
}

// Format selects the pickle encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatYAML    Format = "yaml"
)

// ParseFormat validates a format name. The empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatMsgpack, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown pickle format %q (want json, msgpack or yaml)", s)
}

// jsonEnvelope is the on-disk form for the json and msgpack formats.
// For msgpack, State is a base64 string.
type jsonEnvelope struct {
	Format Format          `json:"format"`
	Class  string          `json:"class"`
	Type   json.RawMessage `json:"type"`
	State  json.RawMessage `json:"state"`
}

type yamlEnvelope struct {
	Format Format `yaml:"format"`
	Class  string `yaml:"class"`
	Type   string `yaml:"type"`
	State  any    `yaml:"state"`
}

// GetState returns the state tuple of obj.
func (c *Class) GetState(ctx context.Context, conv *Converter, obj *Object) (cty.Value, error) {
	spec := c.lookupPickle()
	if spec == nil {
		return cty.NilVal, fmt.Errorf("%s: %w", c.DisplayName(), ErrNotPickleable)
	}
	return spec.get.CallMethod(ctx, conv, obj, nil, nil)
}

// SetState builds a new instance of c from a state tuple.
func (c *Class) SetState(ctx context.Context, conv *Converter, state cty.Value) (*Object, error) {
	spec := c.lookupPickle()
	if spec == nil {
		return nil, fmt.Errorf("%s: %w", c.DisplayName(), ErrNotPickleable)
	}
	sel, err := spec.set.resolve(conv, nil, []cty.Value{state}, nil)
	if err != nil {
		return nil, err
	}
	out, err := sel.ov.invoke(ctx, sel.in)
	if err != nil {
		return nil, err
	}
	return c.adopt(out[0])
}

// Copy duplicates a pickleable object through its state.
func Copy(ctx context.Context, conv *Converter, obj *Object) (*Object, error) {
	state, err := obj.Class.GetState(ctx, conv, obj)
	if err != nil {
		return nil, err
	}
	return obj.Class.SetState(ctx, conv, state)
}

// Dumps pickles obj.
func Dumps(ctx context.Context, conv *Converter, obj *Object, format Format) (string, error) {
	state, err := obj.Class.GetState(ctx, conv, obj)
	if err != nil {
		return "", err
	}
	ty := state.Type()
	rawType, err := ctyjson.MarshalType(ty)
	if err != nil {
		return "", fmt.Errorf("pickle %s: type: %w", obj.Class.DisplayName(), err)
	}
	class := obj.Class.QualifiedName()

	switch format {
	case FormatJSON, "":
		rawState, err := ctyjson.Marshal(state, ty)
		if err != nil {
			return "", fmt.Errorf("pickle %s: %w", class, err)
		}
		out, err := json.Marshal(jsonEnvelope{Format: FormatJSON, Class: class, Type: rawType, State: rawState})
		return string(out), err
	case FormatMsgpack:
		packed, err := ctymsgpack.Marshal(state, ty)
		if err != nil {
			return "", fmt.Errorf("pickle %s: %w", class, err)
		}
		rawState, _ := json.Marshal(base64.StdEncoding.EncodeToString(packed))
		out, err := json.Marshal(jsonEnvelope{Format: FormatMsgpack, Class: class, Type: rawType, State: rawState})
		return string(out), err
	case FormatYAML:
		rawState, err := ctyjson.Marshal(state, ty)
		if err != nil {
			return "", fmt.Errorf("pickle %s: %w", class, err)
		}
		var generic any
		if err := json.Unmarshal(rawState, &generic); err != nil {
			return "", fmt.Errorf("pickle %s: %w", class, err)
		}
		out, err := yaml.Marshal(yamlEnvelope{Format: FormatYAML, Class: class, Type: string(rawType), State: generic})
		return string(out), err
	}
	return "", fmt.Errorf("unknown pickle format %q", format)
}

// Loads unpickles a payload produced by Dumps. The class is looked up by
// its qualified name.
func Loads(ctx context.Context, conv *Converter, payload string) (*Object, error) {
	class, ty, state, err := decodeEnvelope(payload)
	if err != nil {
		return nil, err
	}
	cls, ok := conv.classes.ClassByName(class)
	if !ok {
		return nil, fmt.Errorf("unpickle: %w %q", ErrUnknownClass, class)
	}
	val, err := state(ty)
	if err != nil {
		return nil, fmt.Errorf("unpickle %s: %w: %v", class, ErrInvalidState, err)
	}
	return cls.SetState(ctx, conv, val)
}

func decodeEnvelope(payload string) (string, cty.Type, func(cty.Type) (cty.Value, error), error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env jsonEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return "", cty.NilType, nil, fmt.Errorf("unpickle: %w", err)
		}
		ty, err := ctyjson.UnmarshalType(env.Type)
		if err != nil {
			return "", cty.NilType, nil, fmt.Errorf("unpickle %s: type: %w", env.Class, err)
		}
		switch env.Format {
		case FormatMsgpack:
			return env.Class, ty, func(ty cty.Type) (cty.Value, error) {
				var encoded string
				if err := json.Unmarshal(env.State, &encoded); err != nil {
					return cty.NilVal, err
				}
				packed, err := base64.StdEncoding.DecodeString(encoded)
				if err != nil {
					return cty.NilVal, err
				}
				return ctymsgpack.Unmarshal(packed, ty)
			}, nil
		case FormatJSON, "":
			return env.Class, ty, func(ty cty.Type) (cty.Value, error) {
				return ctyjson.Unmarshal(env.State, ty)
			}, nil
		}
		return "", cty.NilType, nil, fmt.Errorf("unpickle: unknown format %q", env.Format)
	}

	var env yamlEnvelope
	if err := yaml.Unmarshal(trimmed, &env); err != nil {
		return "", cty.NilType, nil, fmt.Errorf("unpickle: %w", err)
	}
	if env.Format != FormatYAML {
		return "", cty.NilType, nil, fmt.Errorf("unpickle: unknown format %q", env.Format)
	}
	ty, err := ctyjson.UnmarshalType([]byte(env.Type))
	if err != nil {
		return "", cty.NilType, nil, fmt.Errorf("unpickle %s: type: %w", env.Class, err)
	}
	return env.Class, ty, func(ty cty.Type) (cty.Value, error) {
		raw, err := json.Marshal(env.State)
		if err != nil {
			return cty.NilVal, err
		}
		return ctyjson.Unmarshal(raw, ty)
	}, nil
}
