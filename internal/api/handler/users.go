package handler

import (
	"net/http"

	"chatgogo/store/internal/chathub"
	"chatgogo/store/internal/models"

	"github.com/gin-gonic/gin"
)

type createAccountRequest struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	StatusMsg string `json:"statusMsg"`
}

type loginRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateAccount registers a user and makes them the active user.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Hub.CreateAccount(c.Request.Context(), req.UserID, req.UserName, req.StatusMsg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.Snapshot())
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Hub.Login(c.Request.Context(), req.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Hub.Snapshot())
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Hub.Logout(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateProfile changes the active user's id, name or status. Omitted
// fields stay as they are.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req chathub.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Hub.UpdateProfile(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Hub.Snapshot())
}

func (h *Handler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.ListUsers())
}

func (h *Handler) GetUser(c *gin.Context) {
	u, ok := h.Hub.User(c.Param("id"))
	if !ok {
		writeError(c, models.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Reset restores the seed accounts and drops every room.
func (h *Handler) Reset(c *gin.Context) {
	if err := h.Hub.Reset(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
