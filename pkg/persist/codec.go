package persist

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec encodes navigation state snapshots.
type Codec interface {
	// Name identifies the codec in logs and config ("json", "yaml").
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONCodec implements Codec using JSON encoding.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// YAMLCodec implements Codec using YAML encoding. Snapshots are larger than
// JSON but readable when inspected by hand.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec) Decode(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// DefaultCodec is the codec used when none is configured.
var DefaultCodec Codec = JSONCodec{}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSONCodec{}, true
	case "yaml", "yml":
		return YAMLCodec{}, true
	default:
		return nil, false
	}
}
