package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	JoinQueue(ctx context.Context, handle, name string) (*usecase.JoinOutcome, error)
	CancelQueue(handle string) bool
	MakeMove(ctx context.Context, handle string, move entity.Move) (*usecase.MoveOutcome, error)
	Surrender(ctx context.Context, handle string) (*usecase.EndOutcome, error)
	LeaveRoom(ctx context.Context, handle string) (*usecase.EndOutcome, error)
	Disconnect(ctx context.Context, handle string) (*usecase.EndOutcome, error)
	RequestUndo(ctx context.Context, handle string) (*usecase.UndoOutcome, error)
	RespondUndo(ctx context.Context, handle string, accept bool) (*usecase.UndoOutcome, error)
	RequestRematch(ctx context.Context, handle string) (*usecase.RematchOutcome, error)
}

// Options - connection tuning. PingPeriod must stay below PongWait.
type Options struct {
	AllowedOrigins []string
	SendBuffer     int
	MaxMessageSize int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:     64,
		MaxMessageSize: 4096,
		PingPeriod:     54 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

type handlerFunc func(ctx context.Context, conn *Connection, msg *Message) error

type Server struct {
	logger   *slog.Logger
	game     gameManager
	opts     Options
	upgrader websocket.Upgrader
	router   chi.Router

	mu          sync.RWMutex
	connections map[string]*Connection

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, game gameManager, opts Options) *Server {
	server := &Server{
		logger:      logger,
		game:        game,
		opts:        opts,
		connections: make(map[string]*Connection),
		handlers:    make(map[string]handlerFunc),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	server.handlers[actionJoinQueue] = server.handleJoinQueue
	server.handlers[actionCancelQueue] = server.handleCancelQueue
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionSurrender] = server.handleSurrender
	server.handlers[actionLeaveRoom] = server.handleLeaveRoom
	server.handlers[actionUndoRequest] = server.handleUndoRequest
	server.handlers[actionUndoRespond] = server.handleUndoRespond
	server.handlers[actionRematchRequest] = server.handleRematchRequest

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Get("/ws", server.ServeWS)
	server.router = router

	return server
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.router.ServeHTTP(w, r)
}

// Start - serves /ws on the port until ctx is canceled, then closes every connection.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	that.Close()

	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

// ServeWS - upgrades the request and serves the connection until it closes.
func (that *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeWS", "requestID", chimw.GetReqID(r.Context()))

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	connection := &Connection{
		handle: uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, that.opts.SendBuffer),
		server: that,
	}

	that.register(connection)
	log.Info("connection established", "handle", connection.handle, "remote", r.RemoteAddr)

	go connection.writePump()

	that.sendTo(connection.handle, actionConnected, connectedPayload{Handle: connection.handle})

	// the request context ends with this handler; the game must still see the disconnect
	connection.readPump(context.WithoutCancel(r.Context()))

	log.Info("connection closed", "handle", connection.handle)
}

// Close - closes every connection; their read loops then run the disconnect flow.
func (that *Server) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for handle, conn := range that.connections {
		conn.closeSend()
		_ = conn.conn.Close()
		delete(that.connections, handle)
	}
}

func (that *Server) register(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[conn.handle] = conn
}

func (that *Server) unregister(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.connections[conn.handle]; ok && current == conn {
		delete(that.connections, conn.handle)
	}
	conn.closeSend()
}

func (that *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(that.opts.AllowedOrigins) == 0 {
		return true
	}

	return slices.Contains(that.opts.AllowedOrigins, "*") || slices.Contains(that.opts.AllowedOrigins, origin)
}

// dispatch - decodes the envelope and runs its handler. Any failure is reported to the sender only.
func (that *Server) dispatch(ctx context.Context, conn *Connection, data []byte) {
	log := that.logger.With("method", "dispatch", "handle", conn.handle)

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug("failed to unmarshal message", "error", err)
		that.sendError(conn.handle, fmt.Errorf("%w: %w", apperror.ErrInvalidMessage, err))
		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Debug("unknown action", "action", msg.Action)
		that.sendError(conn.handle, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidMessage, msg.Action))
		return
	}

	if err := handler(ctx, conn, &msg); err != nil {
		log.Debug("action rejected", "action", msg.Action, "error", err)
		that.sendError(conn.handle, err)
	}
}

func (that *Server) sendError(handle string, err error) {
	code := apperror.Code(err)

	message := err.Error()
	if code == apperror.CodeUnknown {
		that.logger.Error("unexpected error", "handle", handle, "error", err)
		message = "internal error"
	}

	that.sendTo(handle, actionError, errorPayload{Code: code, Message: message})
}

func (that *Server) sendTo(handle, action string, payload any) {
	that.broadcast([]string{handle}, action, payload)
}

func (that *Server) broadcastRoom(room *entity.Room, action string, payload any) {
	that.broadcast(room.Handles(), action, payload)
}

// broadcast - handles without a live connection are skipped. A client whose
// buffer is full is disconnected rather than left with a gap in its state.
func (that *Server) broadcast(handles []string, action string, payload any) {
	log := that.logger.With("method", "broadcast", "action", action)

	data, err := encode(action, payload)
	if err != nil {
		log.Error("failed to encode message", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, handle := range handles {
		conn, ok := that.connections[handle]
		if !ok {
			continue
		}

		if !conn.enqueue(data) {
			log.Warn("send buffer full, dropping connection", "handle", handle)
			_ = conn.conn.Close()
		}
	}
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
