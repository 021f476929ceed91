package protocol

import (
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
	"github.com/pkg/errors"
)

// ParseHeader parses the request header at the front of a frame (length prefix
// already stripped): api_key, api_version, correlation_id, the legacy nullable
// client_id and the tag section. Whatever follows is the request body.
func ParseHeader(frame []byte, connAddr string) (types.Request, error) {
	d := serde.NewDecoder(frame)
	req := types.Request{
		Length:            int32(len(frame)),
		RequestAPIKey:     d.Int16(),
		RequestAPIVersion: d.Int16(),
		CorrelationID:     d.Int32(),
		ClientID:          d.NullableString(),
		TagBuffer:         d.TagBuffer(),
		ConnectionAddress: connAddr,
	}
	if err := d.Err(); err != nil {
		return req, errors.Wrap(err, "request header")
	}
	req.Body = d.Remaining()
	return req, nil
}

// EncodeRequestHeader writes a request header. Used by tests and tools that talk to the broker.
func EncodeRequestHeader(e *serde.Encoder, apiKey, apiVersion int16, correlationID int32, clientID *string) {
	e.PutInt16(apiKey)
	e.PutInt16(apiVersion)
	e.PutInt32(correlationID)
	e.PutNullableString(clientID)
	e.EndStruct()
}

// ResponseHeaderVersion selects the response header layout.
type ResponseHeaderVersion int8

// Response header layouts
const (
	// ResponseHeaderV0 is correlation_id only.
	ResponseHeaderV0 ResponseHeaderVersion = 0
	// ResponseHeaderV1 is correlation_id followed by a tag section.
	ResponseHeaderV1 ResponseHeaderVersion = 1
)

// ResponseHeader precedes every response body
type ResponseHeader struct {
	Version       ResponseHeaderVersion
	CorrelationID int32
	TagBuffer     serde.TagBuffer // v1 only
}

// Encode writes the header in the layout selected by Version
func (h ResponseHeader) Encode(e *serde.Encoder) {
	e.PutInt32(h.CorrelationID)
	if h.Version == ResponseHeaderV1 {
		e.PutTagBuffer(h.TagBuffer)
	}
}

// DecodeResponseHeader reads a response header of the given version
func DecodeResponseHeader(d *serde.Decoder, version ResponseHeaderVersion) ResponseHeader {
	h := ResponseHeader{Version: version, CorrelationID: d.Int32()}
	if version == ResponseHeaderV1 {
		h.TagBuffer = d.TagBuffer()
	}
	return h
}
