package handler

import (
	"errors"
	"log"
	"net/http"

	"chatgogo/store/internal/chathub"
	"chatgogo/store/internal/models"

	"github.com/gin-gonic/gin"
)

// Handler exposes the chat hub to the local UI shell.
type Handler struct {
	Hub *chathub.Manager
}

func NewHandler(hub *chathub.Manager) *Handler {
	return &Handler{Hub: hub}
}

// Register mounts all routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/accounts", h.CreateAccount)

	r.GET("/session", h.GetSession)
	r.POST("/session/login", h.Login)
	r.POST("/session/logout", h.Logout)
	r.DELETE("/session/focus", h.Unfocus)
	r.PATCH("/me", h.UpdateProfile)

	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)

	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms/:id", h.GetRoom)
	r.POST("/rooms/:id/invite", h.Invite)
	r.POST("/rooms/:id/leave", h.Leave)
	r.POST("/rooms/:id/messages", h.SendMessage)
	r.POST("/rooms/:id/focus", h.FocusRoom)

	r.POST("/reset", h.Reset)
	r.GET("/ws", h.ServeWebSocket)
}

// writeError maps store errors to HTTP statuses. A persistence failure is
// reported even though the change is visible in memory.
func writeError(c *gin.Context, err error) {
	var unresolved *models.UnresolvedUsersError
	switch {
	case errors.As(err, &unresolved):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "userIds": unresolved.IDs})
	case errors.Is(err, models.ErrEmptyField), errors.Is(err, models.ErrNoParticipants):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrRoomNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNoActiveUser):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotParticipant):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
