package signal

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientTokenKey is the gin context key the HTTP layer stores the session client token under.
const ClientTokenKey = "client_token"

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string

	JoinRateLimit    int
	JoinRateInterval time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:        cfg.ReadLimit,
		PingPeriod:       cfg.PingPeriod,
		PongWait:         cfg.PongWait,
		WriteWait:        cfg.WriteWait,
		SendBuffer:       cfg.SendBuffer,
		AllowedOrigins:   cfg.AllowedOrigins,
		JoinRateLimit:    cfg.JoinRateLimit,
		JoinRateInterval: cfg.JoinRateInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts     Options
	limiter  *RoomRateLimiter
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	ctl := &SignalWSController{
		Orch:    o,
		opts:    opts,
		limiter: NewRoomRateLimiter(opts.JoinRateLimit, opts.JoinRateInterval),
	}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     ctl.checkOrigin,
	}
	return ctl
}

// checkOrigin accepts every origin when none are configured.
func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	if len(ctl.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(ctl.opts.AllowedOrigins, r.Header.Get("Origin"))
}

// WsSignalConn implements core.SignalConnection over a gorilla websocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame
	// client keys the join limiter: the session token, or the transport id without one.
	client string

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int, client string) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer), client: client}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	tid := domain.TransportID(uuid.NewString())
	token := c.GetString(ClientTokenKey)
	logger := log.With().Str("module", "signal").Str("tid", string(tid)).Logger()

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		return
	}
	logger.Info().Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	client := token
	if client == "" {
		client = string(tid)
	}
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer, client)
	connCtx, cancel := context.WithCancel(ctx)
	if err := ctl.Orch.Connect(connCtx, tid, conn, cancel); err != nil {
		logger.Error().Err(err).Msg("register connection")
		cancel()
		conn.Close()
		return
	}

	ctl.sendJSON(conn, protocol.Hello{Type: protocol.TypeHello, TransportID: tid, ClientToken: token})

	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, tid, conn)
}
