package handler

import (
	"net/http"

	"chatgogo/store/internal/chathub"
	"chatgogo/store/internal/roomstore"

	"github.com/gin-gonic/gin"
)

// createRoomRequest accepts either an explicit name and participant list or
// a query such as "Weekend @ceos.fe @test".
type createRoomRequest struct {
	RoomName     string   `json:"roomName"`
	Participants []string `json:"participants"`
	Query        string   `json:"query"`
}

type inviteRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

type sendRequest struct {
	Content string `json:"content"`
}

// ListRooms returns the active user's rooms, filtered by ?q= on the name.
func (h *Handler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.SearchRooms(c.Query("q")))
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name, ids := req.RoomName, req.Participants
	if req.Query != "" {
		name, ids = chathub.ParseRoomQuery(req.Query)
	}
	id, err := h.Hub.CreateRoom(c.Request.Context(), name, ids)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"roomId": id})
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	d, err := h.Hub.Room(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Invite(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Hub.Invite(c.Request.Context(), id, req.UserIDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Leave(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	deleted, err := h.Hub.Leave(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	chat, err := h.Hub.Send(c.Request.Context(), id, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// FocusRoom opens the room for reading and marks it read.
func (h *Handler) FocusRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}
	d, err := h.Hub.FocusRoom(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Unfocus(c *gin.Context) {
	h.Hub.Unfocus()
	c.Status(http.StatusNoContent)
}

func roomID(c *gin.Context) (int64, bool) {
	id, err := roomstore.ParseRoomID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}
