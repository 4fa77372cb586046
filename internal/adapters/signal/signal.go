package signal

import (
	"context"
	"net/http"
	"slices"

	"github.com/dkeye/fastcall/internal/app"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// SignalWSController upgrades /ws/:room/:client requests and hands each
// connection to the dispatcher.
type SignalWSController struct {
	Dispatcher *app.Dispatcher
	Limiter    *JoinRateLimiter
	Options    Options

	upgrader websocket.Upgrader
}

// NewSignalWSController builds a controller. An empty allowedOrigins list
// or a "*" entry accepts any origin.
func NewSignalWSController(d *app.Dispatcher, limiter *JoinRateLimiter, opts Options, allowedOrigins []string) *SignalWSController {
	return &SignalWSController{
		Dispatcher: d,
		Limiter:    limiter,
		Options:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// HandleSignal blocks until the connection's dispatch loop ends.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	room, err := domain.ParseRoomName(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	client, err := domain.ParseClientID(c.Param("client"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ctl.Limiter.Allow(client) {
		log.Warn().Str("module", "signal").Str("client", string(client)).Msg("too many connect attempts")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connect attempts"})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room", string(room)).Msg("ws upgrade")
		return
	}

	conn := NewWsSignalConn(ws, ctl.Options)
	go conn.writePump()

	ctl.Dispatcher.Serve(ctx, app.Peer{
		Room:      room,
		Client:    client,
		Token:     c.GetString("client_token"),
		Transport: conn,
	})
}
