package protocol

// https://kafka.apache.org/protocol#protocol_api_keys
const (
	APIVersionsKey             int16 = 18
	DescribeTopicPartitionsKey int16 = 75
)

// APIKey represents an API key and its supported version range.
type APIKey struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
}

// supportedAPIs is advertised by ApiVersions in this order.
var supportedAPIs = [...]APIKey{
	{APIKey: APIVersionsKey, MinVersion: 0, MaxVersion: 4},
	{APIKey: DescribeTopicPartitionsKey, MinVersion: 0, MaxVersion: 0},
}

// SupportedAPIs returns a copy of the advertised API table.
func SupportedAPIs() []APIKey {
	res := make([]APIKey, len(supportedAPIs))
	copy(res, supportedAPIs[:])
	return res
}

// IsSupported reports whether the broker implements version of apiKey.
func IsSupported(apiKey, version int16) bool {
	for _, k := range supportedAPIs {
		if k.APIKey == apiKey {
			return version >= k.MinVersion && version <= k.MaxVersion
		}
	}
	return false
}
