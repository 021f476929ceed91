package metrics

import (
	"time"

	gometrics "github.com/hashicorp/go-metrics"
)

// ServiceName prefixes every metric key
const ServiceName = "kafkameta"

// BrokerMetrics records request handling. A nil *BrokerMetrics is valid and records nothing.
type BrokerMetrics struct {
	m    *gometrics.Metrics
	sink *gometrics.InmemSink
}

// New creates BrokerMetrics backed by an in-memory sink aggregating over interval.
func New(interval time.Duration) (*BrokerMetrics, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	sink := gometrics.NewInmemSink(interval, 6*interval)
	conf := gometrics.DefaultConfig(ServiceName)
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false
	m, err := gometrics.New(conf, sink)
	if err != nil {
		return nil, err
	}
	return &BrokerMetrics{m: m, sink: sink}, nil
}

// DumpOnSignal prints the current interval to stderr on SIGUSR1
func (b *BrokerMetrics) DumpOnSignal() *gometrics.InmemSignal {
	if b == nil {
		return nil
	}
	return gometrics.DefaultInmemSignal(b.sink)
}

// RequestReceived counts a well-formed frame for api
func (b *BrokerMetrics) RequestReceived(api string) {
	if b == nil {
		return
	}
	b.m.IncrCounter([]string{"requests", api}, 1)
}

// UnknownAPI counts frames carrying an api key/version that is not served
func (b *BrokerMetrics) UnknownAPI() {
	if b == nil {
		return
	}
	b.m.IncrCounter([]string{"requests", "unknown"}, 1)
}

// CodecError counts requests that could not be decoded
func (b *BrokerMetrics) CodecError() {
	if b == nil {
		return
	}
	b.m.IncrCounter([]string{"codec_errors"}, 1)
}

// MeasureHandle records the time spent handling a request for api
func (b *BrokerMetrics) MeasureHandle(api string, start time.Time) {
	if b == nil {
		return
	}
	b.m.MeasureSince([]string{"handle", api}, start)
}

// ConnectionOpened and ConnectionClosed track open connections
func (b *BrokerMetrics) ConnectionOpened() {
	if b == nil {
		return
	}
	b.m.IncrCounter([]string{"connections", "opened"}, 1)
}

// ConnectionClosed counts closed connections
func (b *BrokerMetrics) ConnectionClosed() {
	if b == nil {
		return
	}
	b.m.IncrCounter([]string{"connections", "closed"}, 1)
}

// Counter returns the sum of a counter over the retained intervals, keyed
// without the service prefix, e.g. "requests.ApiVersions".
func (b *BrokerMetrics) Counter(name string) float64 {
	if b == nil {
		return 0
	}
	var total float64
	for _, interval := range b.sink.Data() {
		interval.RLock()
		if v, ok := interval.Counters[ServiceName+"."+name]; ok {
			total += v.Sum
		}
		interval.RUnlock()
	}
	return total
}
