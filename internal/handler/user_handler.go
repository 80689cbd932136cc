package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
	"Yam_Community/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

// SyncReq 身份服务注册成功后推送的用户信息
type SyncReq struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Sync(c *gin.Context) {
	var req SyncReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	// 只能同步自己的投影
	if req.UserID != currentUser(c) {
		fail(c, pkg.ErrUnauthorized)
		return
	}
	u := model.User{UserID: req.UserID, Username: req.Username, Email: req.Email}
	if err := h.svc.SyncUser(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
