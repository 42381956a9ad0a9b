package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/storetrainer/internal/ai"
	"github.com/yigit/storetrainer/internal/app/models/dto"
	"github.com/yigit/storetrainer/internal/middleware"
)

// Recorder tracks open practice sockets
type Recorder interface {
	PracticeSessionOpened()
	PracticeSessionClosed()
}

// Handler upgrades practice connections
type Handler struct {
	open     SessionFactory
	recorder Recorder
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a new practice websocket handler. An empty origin list
// or "*" accepts any origin.
func NewHandler(open SessionFactory, recorder Recorder, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		open:     open,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection godoc
// @Summary Open a live practice conversation
// @Description Upgrades to a websocket. Send {"type":"say","text":...} or {"type":"evaluate"}; a second request while one is pending gets a "busy" frame.
// @Tags simulation, websocket
// @Security BearerAuth
// @Param persona query string false "customer or assistant"
// @Param scenario query string false "Scenario description"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /simulation/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to upgrade practice connection")
		return
	}

	client := newClient(conn, h.open, userID, h.logger)
	h.recorder.PracticeSessionOpened()
	h.logger.Debug().Int64("userID", userID).Msg("Practice socket opened")

	client.start(ai.Persona(c.Query("persona")), strings.TrimSpace(c.Query("scenario")))

	go client.writePump()
	go func() {
		client.readPump()
		client.wg.Wait()
		h.recorder.PracticeSessionClosed()
		h.logger.Debug().Int64("userID", userID).Msg("Practice socket closed")
	}()
}
