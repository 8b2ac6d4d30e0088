package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"time"

	"github.com/vk/wellformed/internal/batch"
	"github.com/vk/wellformed/internal/config"
	"github.com/vk/wellformed/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIO publishes every verdict as an event on a socket.io connection.
type SocketIO struct {
	mu       sync.Mutex
	event    string
	metadata map[string]any
	closed   bool

	publish    func(event string, payload map[string]any)
	disconnect func()
}

// DialSocketIO connects to the server described by cfg and waits for the
// connection to be established or to fail.
func DialSocketIO(ctx context.Context, cfg *config.Publish) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", cfg.URL)
	logger.Info("Connecting verdict publisher...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Verdict publisher connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect_error: %v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	timeout := cfg.ConnectTimeout()
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return newSocketIO(cfg,
		func(event string, payload map[string]any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
	), nil
}

func newSocketIO(cfg *config.Publish, publish func(string, map[string]any), disconnect func()) *SocketIO {
	return &SocketIO{
		event:      cfg.Event,
		metadata:   cfg.Metadata,
		publish:    publish,
		disconnect: disconnect,
	}
}

// Payload builds the event body for v. Metadata keys never shadow the
// verdict fields.
func (s *SocketIO) Payload(v batch.Verdict) map[string]any {
	payload := make(map[string]any, len(s.metadata)+2)
	maps.Copy(payload, s.metadata)
	payload["index"] = v.Index
	payload["well_formed"] = v.WellFormed
	return payload
}

// Emit implements Sink.
func (s *SocketIO) Emit(_ context.Context, v batch.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.publish(s.event, s.Payload(v))
	return nil
}

// Close disconnects from the server.
func (s *SocketIO) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	ctxlog.FromContext(ctx).Debug("Disconnecting verdict publisher.")
	s.disconnect()
	return nil
}
