package protocol

import (
	"github.com/CefBoud/kafkameta/types"
	"github.com/pkg/errors"
)

// APIKeyHandler represents a kafka api key with its handler and the
// response header layout its responses use
type APIKeyHandler struct {
	Name          string
	HeaderVersion ResponseHeaderVersion
	Handler       func(req types.Request) (ResponseBody, error)
}

// Dispatcher routes parsed requests to their handler.
type Dispatcher struct {
	// Topics backs DescribeTopicPartitions, nil means every topic is unknown.
	Topics TopicSource
}

// NewDispatcher creates a Dispatcher answering topic lookups from topics.
func NewDispatcher(topics TopicSource) *Dispatcher {
	return &Dispatcher{Topics: topics}
}

// APIDispatcher maps the Request key and version to its handler.
// ok is false when the pair is not served.
func (d *Dispatcher) APIDispatcher(requestAPIKey, requestAPIVersion int16) (APIKeyHandler, bool) {
	switch requestAPIKey {
	case APIVersionsKey:
		// every version is answered, unsupported ones in-band with UNSUPPORTED_VERSION.
		// ApiVersions keeps header v0 so old clients can read the error.
		return APIKeyHandler{Name: "ApiVersions", HeaderVersion: ResponseHeaderV0, Handler: d.getAPIVersionResponse}, true
	case DescribeTopicPartitionsKey:
		if !IsSupported(DescribeTopicPartitionsKey, requestAPIVersion) {
			return APIKeyHandler{}, false
		}
		return APIKeyHandler{Name: "DescribeTopicPartitions", HeaderVersion: ResponseHeaderV1, Handler: d.getDescribeTopicPartitionsResponse}, true
	default:
		return APIKeyHandler{}, false
	}
}

// APIName returns a printable name for an api key
func APIName(apiKey int16) string {
	switch apiKey {
	case APIVersionsKey:
		return "ApiVersions"
	case DescribeTopicPartitionsKey:
		return "DescribeTopicPartitions"
	default:
		return "Unknown"
	}
}

// Dispatch produces the response for req. A nil response with a nil error
// means the request is not served and nothing should be written back.
// An error means the body could not be decoded.
func (d *Dispatcher) Dispatch(req types.Request) (*Response, error) {
	apiKeyHandler, ok := d.APIDispatcher(req.RequestAPIKey, req.RequestAPIVersion)
	if !ok {
		return nil, nil
	}
	body, err := apiKeyHandler.Handler(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s v%d", apiKeyHandler.Name, req.RequestAPIVersion)
	}
	return &Response{
		Header: ResponseHeader{Version: apiKeyHandler.HeaderVersion, CorrelationID: req.CorrelationID},
		Body:   body,
	}, nil
}
