package codec

import (
	"encoding/json"
	"errors"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var (
	ErrUnsupportedCodec = errors.New("unsupported codec")
)

// Codec encodes response bodies
type Codec interface {
	// Encode encodes a value to bytes
	Encode(v any) ([]byte, error)

	// ContentType returns the Content-Type of encoded bodies
	ContentType() string

	// Name returns the codec name
	Name() string
}

// Shared codec instances
var (
	JSON     Codec = &JSONCodec{}
	Protobuf Codec = &ProtobufCodec{}
)

// ByName returns a codec by its name
func ByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON, nil
	case "protobuf":
		return Protobuf, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

// JSONCodec encodes values as JSON. Protobuf messages go through protojson
// so well-known types (Struct, wrappers, timestamps) render as plain JSON.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return protojson.Marshal(msg)
	}
	return json.Marshal(v)
}

func (c *JSONCodec) ContentType() string {
	return "application/json"
}

func (c *JSONCodec) Name() string {
	return "json"
}
