package broker

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/CefBoud/kafkameta/logging"
	"github.com/CefBoud/kafkameta/metrics"
	"github.com/CefBoud/kafkameta/protocol"
	"github.com/CefBoud/kafkameta/serde"
	"github.com/CefBoud/kafkameta/types"
)

// MaxFrameSize bounds the length prefix of a request, larger frames close the connection
const MaxFrameSize = 100 * 1024 * 1024

// Broker accepts Kafka client connections and answers them through a Dispatcher
type Broker struct {
	Config     types.Configuration
	Dispatcher *protocol.Dispatcher
	Metrics    *metrics.BrokerMetrics

	listener net.Listener
	wg       sync.WaitGroup // tracks the accept loop and active connections
	quit     chan struct{}

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewBroker creates a broker. m may be nil.
func NewBroker(config types.Configuration, dispatcher *protocol.Dispatcher, m *metrics.BrokerMetrics) *Broker {
	return &Broker{
		Config:     config,
		Dispatcher: dispatcher,
		Metrics:    m,
		quit:       make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Startup binds the listener and starts accepting connections in the background
func (b *Broker) Startup() error {
	addr := net.JoinHostPort(b.Config.BrokerHost, strconv.Itoa(b.Config.BrokerPort))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %v: %w", addr, err)
	}
	b.listener = listener
	log.Info("Server is listening on %v...", listener.Addr())

	b.wg.Add(1)
	go b.acceptLoop()
	return nil
}

// Addr returns the listener address, nil before Startup
func (b *Broker) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

func (b *Broker) acceptLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-b.quit:
				return
			default:
			}
			log.Error("Error accepting connection: %v", err)
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if !b.track(conn) {
			conn.Close()
			return
		}
		b.wg.Add(1)
		go b.HandleConnection(conn)
	}
}

func (b *Broker) track(conn net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.quit:
		return false
	default:
	}
	b.conns[conn] = struct{}{}
	return true
}

func (b *Broker) untrack(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
}

// HandleConnection serves one client: read a frame, dispatch it, write the response, repeat.
// Any I/O or codec error ends the connection.
func (b *Broker) HandleConnection(conn net.Conn) {
	defer b.wg.Done()
	defer b.untrack(conn)
	defer conn.Close()

	connectionAddr := conn.RemoteAddr().String()
	b.Metrics.ConnectionOpened()
	defer b.Metrics.ConnectionClosed()
	log.Debug("Connection established with %s", connectionAddr)

	lengthBuffer := make([]byte, 4)
	for {
		if b.Config.IdleTimeoutMs > 0 {
			conn.SetReadDeadline(time.Now().Add(time.Duration(b.Config.IdleTimeoutMs) * time.Millisecond))
		}
		// ReadFull (not Read) is used to ensure the entire request is read. Partial data would result in parsing errors
		if _, err := io.ReadFull(conn, lengthBuffer); err != nil {
			logReadError(connectionAddr, "request length", err)
			break
		}
		length := int32(serde.Encoding.Uint32(lengthBuffer))
		if length < 0 || length > MaxFrameSize {
			log.Warn("closing %s: invalid frame length %d", connectionAddr, length)
			b.Metrics.CodecError()
			break
		}
		frame := make([]byte, length)
		if _, err := io.ReadFull(conn, frame); err != nil {
			logReadError(connectionAddr, "request", err)
			break
		}

		response, ok := b.handleFrame(frame, connectionAddr)
		if !ok {
			break
		}
		if response == nil {
			continue
		}
		if err := writeFull(conn, response); err != nil {
			log.Error("Error writing to connection %s: %v", connectionAddr, err)
			break
		}
	}
	log.Debug("Connection with %s closed.", connectionAddr)
}

// handleFrame turns one request frame into a length-prefixed response. A nil response
// means nothing is written back, ok false means the connection must be closed.
func (b *Broker) handleFrame(frame []byte, connectionAddr string) ([]byte, bool) {
	start := time.Now()
	req, err := protocol.ParseHeader(frame, connectionAddr)
	if err != nil {
		log.Warn("closing %s: %v", connectionAddr, err)
		b.Metrics.CodecError()
		return nil, false
	}
	apiName := protocol.APIName(req.RequestAPIKey)
	log.Debug("Received RequestApiKey: %v | RequestApiVersion: %v | CorrelationID: %v | Length: %v",
		apiName, req.RequestAPIVersion, req.CorrelationID, req.Length)

	response, err := b.Dispatcher.Dispatch(req)
	if err != nil {
		log.Warn("closing %s: %v", connectionAddr, err)
		b.Metrics.CodecError()
		return nil, false
	}
	if response == nil {
		b.Metrics.UnknownAPI()
		if b.Config.CloseOnUnknownAPI {
			log.Warn("closing %s: api key %d version %d is not served", connectionAddr, req.RequestAPIKey, req.RequestAPIVersion)
			return nil, false
		}
		log.Debug("ignoring api key %d version %d from %s", req.RequestAPIKey, req.RequestAPIVersion, connectionAddr)
		return nil, true
	}
	b.Metrics.RequestReceived(apiName)

	payload, err := response.Encode()
	if err != nil {
		log.Error("encoding %v response for %s: %v", apiName, connectionAddr, err)
		return nil, false
	}
	b.Metrics.MeasureHandle(apiName, start)
	encoder := serde.NewEncoder()
	encoder.PutBytes(payload)
	encoder.PutLen()
	return encoder.Bytes(), true
}

// writeFull retries short writes until b is written or the connection fails
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func logReadError(connectionAddr, what string, err error) {
	switch {
	case errors.Is(err, io.EOF):
		return
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Warn("connection %s closed mid %s", connectionAddr, what)
	case errors.Is(err, os.ErrDeadlineExceeded):
		log.Debug("closing idle connection %s", connectionAddr)
	case errors.Is(err, net.ErrClosed):
		return
	default:
		log.Error("failed to read %s from %s. Error: %v", what, connectionAddr, err)
	}
}

// Shutdown stops accepting, closes open connections and waits for their workers to exit
func (b *Broker) Shutdown() {
	log.Info("Broker Shutdown...")
	b.mu.Lock()
	select {
	case <-b.quit:
		b.mu.Unlock()
		return
	default:
	}
	close(b.quit)
	for conn := range b.conns {
		conn.Close()
	}
	b.mu.Unlock()

	if b.listener != nil {
		b.listener.Close()
	}
	b.wg.Wait()
}
