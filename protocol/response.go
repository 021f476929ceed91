package protocol

import (
	"fmt"

	"github.com/CefBoud/kafkameta/serde"
)

// ResponseBody is a tagged variant with one case per API key. APIKey selects
// which of the pointers is set.
type ResponseBody struct {
	APIKey                  int16
	APIVersions             *APIVersionsResponse
	DescribeTopicPartitions *DescribeTopicPartitionsResponse
}

// Encode writes the body selected by APIKey
func (b ResponseBody) Encode(e *serde.Encoder) error {
	switch b.APIKey {
	case APIVersionsKey:
		if b.APIVersions == nil {
			return fmt.Errorf("ApiVersions response body is nil")
		}
		b.APIVersions.Encode(e)
	case DescribeTopicPartitionsKey:
		if b.DescribeTopicPartitions == nil {
			return fmt.Errorf("DescribeTopicPartitions response body is nil")
		}
		b.DescribeTopicPartitions.Encode(e)
	default:
		return fmt.Errorf("no response encoder for api key %d", b.APIKey)
	}
	return nil
}

// Response is a header plus a body, ready to be framed
type Response struct {
	Header ResponseHeader
	Body   ResponseBody
}

// Encode serializes header then body. The length prefix is left to the framing layer.
func (r *Response) Encode() ([]byte, error) {
	encoder := serde.NewEncoder()
	r.Header.Encode(&encoder)
	if err := r.Body.Encode(&encoder); err != nil {
		return nil, err
	}
	return encoder.Bytes(), nil
}
