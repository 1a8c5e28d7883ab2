package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"androidcontrol/commandhub"
	"androidcontrol/models"
	"androidcontrol/session"
)

// Server wires the HTTP/WebSocket edge to CommandHub and SessionManager,
// grounded on the teacher's api.SetupRoutes, generalized from a
// broadcast device-list API to the spec's single multiplexed /ws
// command+media+control channel, per SPEC_FULL.md §4.7.
type Server struct {
	hub      *WebSocketHub
	commands *commandhub.Hub
	sessions *session.Manager
	log      *zap.Logger
}

func NewServer(commands *commandhub.Hub, sessions *session.Manager, log *zap.Logger) *Server {
	return &Server{
		hub:      NewWebSocketHub(log),
		commands: commands,
		sessions: sessions,
		log:      log,
	}
}

// RESTRoutes registers the health/device JSON routes on router, meant
// to run on HTTP_PORT, matching the teacher's two-port layout.
func (s *Server) RESTRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.hub.Count()})
	})

	api := router.Group("/api")
	{
		api.GET("/devices", func(c *gin.Context) {
			devices, err := s.commands.ScanDevices(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"devices": devices})
		})
		api.POST("/devices/scan", func(c *gin.Context) {
			devices, err := s.commands.ScanDevices(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"devices": devices})
		})
	}
}

// WebSocketRoutes registers /ws on router, meant to run on
// WEBSOCKET_PORT, matching the teacher's two-port layout.
func (s *Server) WebSocketRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.GET("/ws", func(c *gin.Context) {
		s.handleWebSocket(c)
	})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	clientID := models.NewScid()
	client := newClient(clientID, conn, s.hub, s.log, func(id string) {
		s.hub.remove(id)
		s.commands.CleanupClient(id)
	})
	s.hub.add(client)

	go client.writePump()
	go client.readPump(s.dispatch)
}

// dispatch routes one inbound frame: binary frames are control input
// for the client's active session, text frames are JSON commands for
// CommandHub, per SPEC_FULL.md §4.2/§4.6.
func (s *Server) dispatch(clientID string, isBinary bool, payload []byte) {
	if isBinary {
		s.sessions.RouteControl(clientID, payload)
		return
	}
	client, ok := s.hub.get(clientID)
	if !ok {
		return
	}
	s.commands.Dispatch(context.Background(), clientID, client, payload)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
