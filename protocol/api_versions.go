package protocol

import (
	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
)

// APIVersions (Api key = 18)

// APIVersionsRequest carries the client software identity (v3+).
type APIVersionsRequest struct {
	ClientSoftwareName    string
	ClientSoftwareVersion string
	TagBuffer             serde.TagBuffer
}

// DecodeAPIVersionsRequest reads an ApiVersions request body. Versions before 3 have an empty body.
func DecodeAPIVersionsRequest(body []byte, version int16) (APIVersionsRequest, error) {
	var req APIVersionsRequest
	if version < 3 {
		return req, nil
	}
	d := serde.NewDecoder(body)
	req.ClientSoftwareName = d.CompactString()
	req.ClientSoftwareVersion = d.CompactString()
	req.TagBuffer = d.TagBuffer()
	return req, d.Err()
}

// Encode writes the v3+ request body
func (r APIVersionsRequest) Encode(e *serde.Encoder) {
	e.PutCompactString(r.ClientSoftwareName)
	e.PutCompactString(r.ClientSoftwareVersion)
	e.PutTagBuffer(r.TagBuffer)
}

// APIVersionsResponseKey is one entry of the api_keys array
type APIVersionsResponseKey struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
	TagBuffer  serde.TagBuffer
}

// APIVersionsResponse represents the response for API versions request.
type APIVersionsResponse struct {
	ErrorCode      int16
	APIKeys        []APIVersionsResponseKey
	ThrottleTimeMs int32
	TagBuffer      serde.TagBuffer
}

// Encode writes the flexible (v3+) body layout
func (r *APIVersionsResponse) Encode(e *serde.Encoder) {
	e.PutInt16(r.ErrorCode)
	e.PutCompactArrayLen(len(r.APIKeys))
	for _, k := range r.APIKeys {
		e.PutInt16(k.APIKey)
		e.PutInt16(k.MinVersion)
		e.PutInt16(k.MaxVersion)
		e.PutTagBuffer(k.TagBuffer)
	}
	e.PutInt32(r.ThrottleTimeMs)
	e.PutTagBuffer(r.TagBuffer)
}

// DecodeAPIVersionsResponse reads a body written by Encode
func DecodeAPIVersionsResponse(d *serde.Decoder) *APIVersionsResponse {
	r := &APIVersionsResponse{ErrorCode: d.Int16()}
	if n := d.CompactArrayLen(7); n >= 0 {
		r.APIKeys = make([]APIVersionsResponseKey, n)
		for i := range r.APIKeys {
			r.APIKeys[i] = APIVersionsResponseKey{
				APIKey:     d.Int16(),
				MinVersion: d.Int16(),
				MaxVersion: d.Int16(),
				TagBuffer:  d.TagBuffer(),
			}
		}
	}
	r.ThrottleTimeMs = d.Int32()
	r.TagBuffer = d.TagBuffer()
	return r
}

// NewAPIVersionsResponse answers with the supported table for version 4 and
// UNSUPPORTED_VERSION with no keys for anything else.
func NewAPIVersionsResponse(version int16) *APIVersionsResponse {
	if version != 4 {
		return &APIVersionsResponse{ErrorCode: ErrUnsupportedVersion.Code, APIKeys: []APIVersionsResponseKey{}}
	}
	keys := make([]APIVersionsResponseKey, 0, len(supportedAPIs))
	for _, k := range supportedAPIs {
		keys = append(keys, APIVersionsResponseKey{APIKey: k.APIKey, MinVersion: k.MinVersion, MaxVersion: k.MaxVersion})
	}
	return &APIVersionsResponse{ErrorCode: ErrNone.Code, APIKeys: keys}
}

func (d *Dispatcher) getAPIVersionResponse(req types.Request) (ResponseBody, error) {
	// an unreadable body is logged and still answered
	if clientReq, err := DecodeAPIVersionsRequest(req.Body, req.RequestAPIVersion); err != nil {
		log.Debug("ignoring unreadable ApiVersions body from %s: %v", req.ConnectionAddress, err)
	} else if clientReq.ClientSoftwareName != "" {
		log.Debug("ApiVersions from %s %s", clientReq.ClientSoftwareName, clientReq.ClientSoftwareVersion)
	}
	return ResponseBody{APIKey: APIVersionsKey, APIVersions: NewAPIVersionsResponse(req.RequestAPIVersion)}, nil
}
