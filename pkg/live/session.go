package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/datum-dev/datum/internal/errors"
	"github.com/datum-dev/datum/pkg/host"
)

// Session is one websocket connection: the components it mounted on the
// shared runtime, its registered actions and its outbound frame queue.
// Closing the session unmounts its components on the runtime loop, which
// detaches their hooks from every container they observed.
type Session struct {
	// ID is the session identifier.
	ID string

	server *Server
	conn   *websocket.Conn
	config *Config
	logger *slog.Logger

	// mu protects handlers and instances.
	mu        sync.Mutex
	handlers  map[string]func(Event)
	instances []*host.Instance

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, server *Server) *Session {
	return &Session{
		ID:       id,
		server:   server,
		conn:     conn,
		config:   server.config,
		logger:   server.logger.With("session", id),
		handlers: make(map[string]func(Event)),
		send:     make(chan []byte, server.config.SendQueue),
		done:     make(chan struct{}),
	}
}

// HandleAction registers fn to run on the runtime loop when the client
// sends the named action. Registering a name twice replaces the handler.
func (s *Session) HandleAction(name string, fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

// Mount mounts component on the shared runtime for this session. The
// initial fragment is queued directly; re-renders arrive through the
// server's patch routing.
func (s *Session) Mount(component host.Component) (*host.Instance, error) {
	inst, err := s.server.runtime.Mount(component)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.instances = append(s.instances, inst)
	s.mu.Unlock()
	s.server.registerOwner(inst.ID, s)

	s.sendPatch(host.Patch{Instance: inst.ID, HTML: inst.HTML()})
	return inst, nil
}

// InstanceCount returns the number of components mounted for this session.
func (s *Session) InstanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// Start launches the read and write pumps.
func (s *Session) Start() {
	go s.readPump()
	go s.writePump()
}

// Close tears the session down once: pumps stop, the connection closes and
// the session's components are unmounted on the runtime loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()

		s.mu.Lock()
		instances := s.instances
		s.instances = nil
		s.mu.Unlock()

		for _, inst := range instances {
			s.server.unregisterOwner(inst.ID)
		}
		if len(instances) > 0 {
			s.server.runtime.Dispatch(func() {
				for _, inst := range instances {
					s.server.runtime.Unmount(inst)
				}
			})
		}

		s.server.removeSession(s.ID)
		s.logger.Info("session closed")
	})
}

// readPump reads client events until the connection drops, decoding each
// and dispatching its handler onto the runtime loop.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.config.PongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "err", err)
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.logger.Warn("event decode failed", "err", err)
			s.sendError(errors.New("E043"))
			continue
		}

		s.dispatch(ev)
	}
}

// dispatch looks up the action handler and hands it to the runtime loop,
// wrapped in a span when tracing is configured.
func (s *Session) dispatch(ev Event) {
	s.mu.Lock()
	handler, ok := s.handlers[ev.Action]
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("action not found", "action", ev.Action)
		s.sendError(errors.New("E042"))
		return
	}

	fn := func() { handler(ev) }
	if s.config.Tracer != nil {
		fn = s.config.Tracer.TraceDispatch(context.Background(), ev.Action, fn)
	}
	s.server.runtime.Dispatch(fn)
}

// writePump flushes queued frames and keeps the connection alive with
// pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.config.PingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// sendPatch queues one rendered fragment for delivery.
func (s *Session) sendPatch(p host.Patch) {
	frame, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("patch encode failed", "err", err)
		return
	}
	s.enqueue(frame)
}

// sendError queues an error frame for the client's console.
func (s *Session) sendError(derr *errors.DatumError) {
	frame, err := json.Marshal(errorFrame{Error: errorBody{Code: derr.Code, Message: derr.Message}})
	if err != nil {
		return
	}
	s.enqueue(frame)
}

// enqueue drops the frame when the queue is full or the session is closing.
func (s *Session) enqueue(frame []byte) {
	select {
	case s.send <- frame:
	case <-s.done:
	default:
		s.logger.Warn("send queue full, dropping frame")
	}
}
