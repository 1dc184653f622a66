package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/logger"
)

// DashboardHandler pushes live queue-depth updates over a websocket
// connection (SPEC_FULL §3, "supporting, optional"). Every tick it reads the
// current pending count and writes it to the client; it never reads from
// the socket beyond watching for the client closing it.
type DashboardHandler struct {
	queue    *queue.Service
	logger   *logger.Logger
	upgrader websocket.Upgrader
	interval time.Duration
}

func NewDashboardHandler(queueService *queue.Service, log *logger.Logger, interval time.Duration) *DashboardHandler {
	return &DashboardHandler{
		queue:  queueService,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		interval: interval,
	}
}

type queueDepthMessage struct {
	PendingCount int       `json:"pending_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stream handles GET /dashboard/ws.
func (h *DashboardHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("dashboard websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Drain client reads on a goroutine so a closed connection is noticed
	// promptly instead of only on the next failed write.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			depth, err := h.queue.QueueDepth(ctx)
			if err != nil {
				h.logger.Warn("dashboard queue depth read failed", "error", err)
				continue
			}
			msg := queueDepthMessage{PendingCount: depth, Timestamp: time.Now()}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
