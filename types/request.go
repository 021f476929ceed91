package types

import "github.com/CefBoud/kafkameta/serde"

// Request is a parsed request header plus the still encoded body.
type Request struct {
	Length            int32
	RequestAPIKey     int16
	RequestAPIVersion int16
	CorrelationID     int32
	ClientID          *string // nil when the client sent a null client_id
	TagBuffer         serde.TagBuffer
	ConnectionAddress string
	Body              []byte
}
