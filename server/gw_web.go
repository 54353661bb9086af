package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

// Handler is the web gateway: the rooms API and the websocket.
func (s *Server) Handler() http.Handler {
	log := log.With().Str("gw", "web").Logger()

	rh := restHandler{
		server: s,
		log:    log,
	}

	ch := commsHandler{
		server:  s,
		log:     log,
		origins: originPatterns(s.cfg.AllowedOrigins),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	a := r.Group("/api")
	a.GET("/rooms", rh.getRooms)
	a.POST("/rooms", rh.makeRoom)
	a.GET("/rooms/:code", rh.getRoom)
	a.DELETE("/rooms/:code", adminOnly(s.cfg.AdminToken), rh.deleteRoom)
	r.GET("/ws/:peer", ch.serveWS)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

// adminOnly wants "Authorization: Bearer <token>". An empty token lets
// everything through.
func adminOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorOutput{Error: "admin token required", Code: "UNAUTHORIZED"})
		}
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// originPatterns turns allowed origins into the host patterns the websocket
// library matches against.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

// statusFor picks an HTTP status for a game error.
func statusFor(err error) int {
	var gerr *game.GameError
	if !errors.As(err, &gerr) {
		return http.StatusInternalServerError
	}
	switch gerr {
	case game.ErrRoomNotFound:
		return http.StatusNotFound
	case game.ErrBadRequest, game.ErrDuplicateName:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func writeError(c *gin.Context, err error) {
	out := errorOutput{Error: err.Error()}
	var gerr *game.GameError
	if errors.As(err, &gerr) {
		out.Code = gerr.Code
	}
	c.JSON(statusFor(err), out)
}

type restHandler struct {
	server *Server
	log    zerolog.Logger
}

func (rh *restHandler) getRooms(c *gin.Context) {
	list := rh.server.Summaries(c.Request.Context())
	c.JSON(http.StatusOK, list)
}

func (rh *restHandler) makeRoom(c *gin.Context) {
	var in MakeRoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorOutput{Error: err.Error(), Code: game.ErrBadRequest.Code})
		return
	}

	out, err := rh.server.CreateRoom(c.Request.Context(), in)
	if err != nil {
		rh.log.Error().Err(err).Msg("create room error")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

func (rh *restHandler) getRoom(c *gin.Context) {
	code := c.Param("code")

	st, err := rh.server.Snapshot(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

func (rh *restHandler) deleteRoom(c *gin.Context) {
	code := c.Param("code")

	err := rh.server.CloseRoom(c.Request.Context(), code)
	if err != nil {
		rh.log.Error().Err(err).Msg("delete room error")
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type commsHandler struct {
	server  *Server
	log     zerolog.Logger
	origins []string
}

// serveWS takes a rendezvous id, or a bare room code, and an optional
// ticket in the query.
func (ch *commsHandler) serveWS(c *gin.Context) {
	addr := c.Request.RemoteAddr

	log := ch.log.With().Str("client", addr).Logger()
	log.Info().Msgf("connecting")

	peer := c.Param("peer")
	code, ok := lobby.ParseRendezvousID(peer)
	if !ok {
		code = peer
	}
	ticket := c.Query("ticket")

	host, err := ch.server.Room(code)
	if err != nil {
		writeError(c, err)
		return
	}

	socket, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		Subprotocols:   []string{session.Subprotocol},
		OriginPatterns: ch.origins,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	defer socket.Close(websocket.StatusInternalError, "the sky is falling")

	if socket.Subprotocol() != session.Subprotocol {
		socket.Close(websocket.StatusPolicyViolation, "client must speak the "+session.Subprotocol+" subprotocol")
		return
	}

	err = host.Serve(c.Request.Context(), session.NewWebsocketConn(socket), ticket)
	if err != nil && !isClosed(err) {
		log.Info().Err(err).Msg("client gone")
	}
}

func isClosed(err error) bool {
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return true
	}
	return errors.Is(err, session.ErrClosed) || strings.Contains(err.Error(), "EOF")
}
