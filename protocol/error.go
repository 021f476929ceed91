package protocol

import "fmt"

// https://kafka.apache.org/protocol#protocol_error_codes

// Error is a struct to hold the code, message, and retriability status
type Error struct {
	Code        int16
	Message     string
	IsRetriable bool
}

func (e Error) Error() string {
	return fmt.Sprintf("kafka error %d: %s", e.Code, e.Message)
}

// Error codes this broker puts on the wire
var (
	ErrNone                    = Error{Code: 0}
	ErrUnknownTopicOrPartition = Error{Code: 3, Message: "This server does not host this topic-partition.", IsRetriable: true}
	ErrUnsupportedVersion      = Error{Code: 35, Message: "The version of API is not supported."}
)
