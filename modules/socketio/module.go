// Package socketio provides a realtime sink: each pipeline item is emitted
// as a socket.io event. The connection is established on the first item,
// keeping pipeline compilation free of network calls, and is torn down
// when the stream ends.
package socketio

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/taskweave/internal/ctxlog"
	"github.com/vk/taskweave/internal/engine"
	"github.com/vk/taskweave/internal/registry"
)

const connectTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the connector factory and stage factories with the
// central registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterConnector("socketio", connect)
	r.RegisterStage("socketio.emit", newEmit)
}

// Endpoint is the connector handle for a socket.io server.
type Endpoint struct {
	name      string
	url       string
	namespace string
}

// Name returns the connector name the endpoint is registered under.
func (e *Endpoint) Name() string { return e.name }

func connect(name string, options map[string]any) (engine.Connector, error) {
	rawURL, _ := options["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("socketio connector requires a url option")
	}
	namespace, _ := options["namespace"].(string)
	if namespace == "" {
		namespace = "/"
	}
	return &Endpoint{name: name, url: rawURL, namespace: namespace}, nil
}

// newEmit builds a sink that emits every incoming item under the
// configured event name.
func newEmit(ctx context.Context, cfg map[string]any) (any, error) {
	endpoint, ok := cfg["connector"].(*Endpoint)
	if !ok {
		return nil, fmt.Errorf("socketio.emit requires a socketio connector (got %T)", cfg["connector"])
	}
	event, _ := cfg["event"].(string)
	if event == "" {
		return nil, fmt.Errorf("socketio.emit requires an event option")
	}
	emitter := &emitter{endpoint: endpoint}
	return engine.Func(func(ctx context.Context, item any) (any, error) {
		if err := emitter.emit(ctx, event, item); err != nil {
			return nil, err
		}
		return item, nil
	}), nil
}

// emitter lazily dials the endpoint and keeps the socket for the rest of
// the run. A run is single-threaded, so no locking is needed.
type emitter struct {
	endpoint *Endpoint
	io       *socket.Socket
}

func (e *emitter) emit(ctx context.Context, event string, item any) error {
	if e.io == nil {
		if err := e.dial(ctx); err != nil {
			return err
		}
	}
	return e.io.Emit(event, item)
}

func (e *emitter) dial(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("connector", e.endpoint.Name(), "url", e.endpoint.url)
	logger.Debug("Connecting socket.io client.")

	parsedURL, err := url.Parse(e.endpoint.url)
	if err != nil {
		return fmt.Errorf("parsing socket.io url: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(e.endpoint.namespace, opts)

	var isConnected atomic.Bool
	done := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		if isConnected.CompareAndSwap(false, true) {
			done <- nil
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if err, ok := errs[0].(error); ok {
			done <- err
			return
		}
		done <- fmt.Errorf("socket.io connect error: %v", errs)
	})

	io.Connect()

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	select {
	case <-dialCtx.Done():
		io.Disconnect()
		return fmt.Errorf("timed out waiting for socket.io connection to %s", baseURL)
	case err := <-done:
		if err != nil {
			io.Disconnect()
			return err
		}
	}
	logger.Info("Socket.io client connected.", "sid", io.Id())
	e.io = io
	return nil
}

// Close disconnects the socket if a dial ever happened.
func (e *emitter) Close() {
	if e.io != nil {
		e.io.Disconnect()
		e.io = nil
	}
}
