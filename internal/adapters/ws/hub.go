// Package ws streams animation batches to browsers over websockets.
//
// The hub is the animator's rendering surface. Every batch is applied to a
// retained scene graph and then broadcast; a viewer that connects late, or
// one whose queue overflowed, receives a snapshot of the graph instead so
// that its element tree always matches the server's.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/barrace/internal/adapters/mq/queue"
	"github.com/okian/barrace/internal/adapters/mq/worker"
	"github.com/okian/barrace/internal/domain/scene"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeBatch    = "batch"
)

const (
	defaultQueueSize    = 64
	defaultWriteTimeout = 5 * time.Second
	readLimit           = 512
	shutdownTimeout     = time.Second
)

// Message is the envelope written to viewers.
type Message struct {
	Type string `json:"type"`
	scene.Batch
}

type viewer struct {
	id     string
	conn   *websocket.Conn
	queue  *queue.InMemoryQueue
	writer *worker.Writer
	// stale is set when a message was dropped; the next broadcast sends a
	// snapshot instead of a batch.
	stale   bool
	timeout time.Duration
}

// Send writes one text frame.
func (v *viewer) Send(_ context.Context, m queue.Message) error {
	if err := v.conn.SetWriteDeadline(time.Now().Add(v.timeout)); err != nil {
		return err
	}
	return v.conn.WriteMessage(websocket.TextMessage, m)
}

// Hub fans batches out to connected viewers.
type Hub struct {
	mu      sync.Mutex
	graph   *scene.Graph
	viewers map[string]*viewer
	closed  bool

	queueSize    int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	logger       logger.Logger
}

// NewHub creates a hub with configuration options.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		graph:        scene.NewGraph(),
		viewers:      make(map[string]*viewer),
		queueSize:    defaultQueueSize,
		writeTimeout: defaultWriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws-hub")
	}
	return h
}

// Render applies b to the retained scene and queues it for every viewer.
// It never blocks on a viewer.
func (h *Hub) Render(ctx context.Context, b scene.Batch) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	h.graph.Apply(b)
	if len(h.viewers) == 0 {
		return nil
	}

	data, err := encode(TypeBatch, b)
	if err != nil {
		return err
	}

	var snapshot []byte
	for _, v := range h.viewers {
		msg := data
		if v.stale {
			if snapshot == nil {
				if snapshot, err = encode(TypeSnapshot, h.graph.Snapshot()); err != nil {
					return err
				}
			}
			msg = snapshot
		}
		if err := v.queue.Enqueue(ctx, msg); err != nil {
			if !v.stale {
				h.logger.Debug(ctx, "viewer fell behind", logger.String("viewer", v.id), logger.Error(err))
			}
			v.stale = true
			continue
		}
		v.stale = false
	}
	return nil
}

// ServeHTTP upgrades the request and streams batches until the viewer
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := h.subscribe(ctx, conn)
	if err != nil {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	go v.writer.Run(ctx)

	// Viewers only listen; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unsubscribe(ctx, v.id)
}

// subscribe registers a viewer and queues the current scene as its first
// message.
func (h *Hub) subscribe(ctx context.Context, conn *websocket.Conn) (*viewer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	v := &viewer{
		id:      uuid.NewString(),
		conn:    conn,
		queue:   queue.NewInMemoryQueue(queue.WithCapacity(h.queueSize)),
		timeout: h.writeTimeout,
	}
	v.writer = worker.NewWriter(v.queue, v,
		worker.WithName("viewer-"+v.id[:8]),
		worker.WithLogger(h.logger),
		worker.WithOnError(func(error) { _ = conn.Close() }),
	)

	data, err := encode(TypeSnapshot, h.graph.Snapshot())
	if err != nil {
		return nil, err
	}
	if err := v.queue.Enqueue(ctx, data); err != nil {
		return nil, err
	}

	h.viewers[v.id] = v
	metrics.UpdateViewersConnected(len(h.viewers))
	h.logger.Info(ctx, "viewer connected",
		logger.String("viewer", v.id),
		logger.String("remote", conn.RemoteAddr().String()),
		logger.Int("viewers", len(h.viewers)),
	)
	return v, nil
}

func (h *Hub) unsubscribe(ctx context.Context, id string) {
	h.mu.Lock()
	v, ok := h.viewers[id]
	if ok {
		delete(h.viewers, id)
	}
	count := len(h.viewers)
	h.mu.Unlock()
	if !ok {
		return
	}

	h.release(ctx, v)
	metrics.UpdateViewersConnected(count)
	h.logger.Info(ctx, "viewer disconnected", logger.String("viewer", id), logger.Int("viewers", count))
}

func (h *Hub) release(ctx context.Context, v *viewer) {
	_ = v.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := v.writer.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn(ctx, "viewer writer did not stop", logger.String("viewer", v.id), logger.Error(err))
	}
	_ = v.conn.Close()
}

// Close disconnects every viewer and rejects further renders.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	viewers := make([]*viewer, 0, len(h.viewers))
	for id, v := range h.viewers {
		viewers = append(viewers, v)
		delete(h.viewers, id)
	}
	h.mu.Unlock()

	message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, v := range viewers {
		_ = v.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		h.release(context.Background(), v)
	}
	metrics.UpdateViewersConnected(0)
	return nil
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Snapshot returns the retained scene as a batch.
func (h *Hub) Snapshot() scene.Batch {
	return h.graph.Snapshot()
}

func encode(kind string, b scene.Batch) ([]byte, error) {
	data, err := json.Marshal(Message{Type: kind, Batch: b})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}
