package api

import (
	"github.com/goccy/go-json"
)

// CodecName is the name the codec registers under. It replaces Connect's
// built-in JSON codec, which only accepts protobuf messages.
const CodecName = "json"

// Codec marshals plain Go structs as JSON for Connect handlers and clients.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return CodecName }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
