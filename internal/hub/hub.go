package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"LaborPulse/internal/domain/models"
	drepo "LaborPulse/internal/domain/repository"
	"LaborPulse/internal/services/nowcast"
	"LaborPulse/pkg/logger"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	sendBuffer     = 16
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdViewerCount struct {
	replyCh chan int
}

func (cmdViewerCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

// clientWriter serializes all writes to one connection on its own goroutine,
// so a stalled peer never blocks the hub loop.
type clientWriter struct {
	conn         *websocket.Conn
	sendCh       chan []byte
	done         chan struct{}
	writeTimeout time.Duration
}

func newClientWriter(conn *websocket.Conn, writeTimeout time.Duration) *clientWriter {
	cw := &clientWriter{
		conn:         conn,
		sendCh:       make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			_ = cw.conn.SetWriteDeadline(time.Now().Add(cw.writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub owns the viewer set and the tick loop. It advances the counter on its
// own schedule and fans the snapshot out to every connection; all state is
// confined to the run goroutine and mutated only through commands.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
	ids     map[*websocket.Conn]uuid.UUID

	engine  *nowcast.Engine
	metrics drepo.Metrics
	log     *logger.Logger
	clock   clockwork.Clock

	tickInterval time.Duration
	writeTimeout time.Duration
	maxViewers   int
	lastTick     time.Time

	done chan struct{}
}

// New creates a hub and starts its loop. tickInterval controls push
// frequency; maxViewers bounds concurrent connections.
func New(engine *nowcast.Engine, metrics drepo.Metrics, log *logger.Logger, clock clockwork.Clock, tickInterval, writeTimeout time.Duration, maxViewers int) *Hub {
	h := &Hub{
		cmdCh:        make(chan hubCmd, 256),
		clients:      make(map[*websocket.Conn]*clientWriter),
		ids:          make(map[*websocket.Conn]uuid.UUID),
		engine:       engine,
		metrics:      metrics,
		log:          log,
		clock:        clock,
		tickInterval: tickInterval,
		writeTimeout: writeTimeout,
		maxViewers:   maxViewers,
		lastTick:     clock.Now(),
		done:         make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a viewer. The current snapshot is queued as an init message
// before any tick can reach the connection.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register timed out after %v", commandTimeout)
	}
}

// Unregister removes a viewer.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// ViewerCount returns the number of connected viewers, or -1 on timeout.
func (h *Hub) ViewerCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdViewerCount{replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case n := <-replyCh:
		return n
	case <-timer.Chan():
		return -1
	}
}

// Stop closes all connections and halts the loop.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
	case <-timer.Chan():
		h.log.Warn("hub stop timeout exceeded")
	}
}

func (h *Hub) run() {
	ticker := h.clock.NewTicker(h.tickInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case cmdRegister:
				h.handleRegister(c)
			case cmdUnregister:
				h.handleUnregister(c.conn)
			case cmdViewerCount:
				c.replyCh <- len(h.clients)
			case cmdStop:
				h.handleStop()
				return
			}
		case <-ticker.Chan():
			h.handleTick()
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if h.maxViewers > 0 && len(h.clients) >= h.maxViewers {
		h.log.Warn("rejecting viewer, max reached", logger.Int("max", h.maxViewers))
		c.conn.Close()
		c.errCh <- fmt.Errorf("max viewers (%d) reached", h.maxViewers)
		return
	}

	data, err := h.encode(models.MsgInit)
	if err != nil {
		c.conn.Close()
		c.errCh <- err
		return
	}

	cw := newClientWriter(c.conn, h.writeTimeout)
	cw.sendCh <- data
	h.clients[c.conn] = cw
	h.ids[c.conn] = uuid.New()

	h.metrics.RecordViewers(len(h.clients))
	h.log.Debug("viewer registered",
		logger.String("id", h.ids[c.conn].String()),
		logger.Int("viewers", len(h.clients)))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	id := h.ids[conn]
	delete(h.clients, conn)
	delete(h.ids, conn)

	h.metrics.RecordViewers(len(h.clients))
	h.log.Debug("viewer unregistered",
		logger.String("id", id.String()),
		logger.Int("viewers", len(h.clients)))
}

func (h *Hub) handleTick() {
	now := h.clock.Now()
	elapsed := now.Sub(h.lastTick)
	h.lastTick = now

	state := h.engine.Tick(elapsed)
	h.metrics.RecordTick()
	h.metrics.RecordCounter(state.IntegerValue, state.PerSecondRate)

	if len(h.clients) == 0 {
		return
	}

	data, err := h.encode(models.MsgTick)
	if err != nil {
		h.log.Error("tick encode failed", logger.Error(err))
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- data:
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		h.log.Warn("disconnecting slow viewer", logger.String("id", h.ids[conn].String()))
		h.metrics.RecordError("slow_viewer")
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	h.log.Info("hub shutting down", logger.Int("viewers", len(h.clients)))
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
		delete(h.ids, conn)
	}
}

func (h *Hub) encode(msgType string) ([]byte, error) {
	msg := models.PushMessage{Type: msgType, Data: h.engine.Snapshot()}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", msgType, err)
	}
	return data, nil
}
