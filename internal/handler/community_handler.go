package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/model"
	"Yam_Community/internal/roster"
	"Yam_Community/internal/service"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

type JoinReq struct {
	Code string `json:"code" binding:"required"`
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

// specFromForm 创建和编辑都走 multipart，横幅字段名 banner
func specFromForm(c *gin.Context) model.CommunitySpec {
	isPublic, err := strconv.ParseBool(c.DefaultPostForm("isPublic", "true"))
	if err != nil {
		isPublic = true
	}
	return model.CommunitySpec{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		IsPublic:    isPublic,
	}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	banner, err := formFile(c, "banner")
	if err != nil {
		fail(c, err)
		return
	}
	community, err := h.svc.Create(c.Request.Context(), specFromForm(c), currentUser(c), banner)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) Edit(c *gin.Context) {
	banner, err := formFile(c, "banner")
	if err != nil {
		fail(c, err)
		return
	}
	community, err := h.svc.Edit(c.Request.Context(), c.Param("id"), currentUser(c), specFromForm(c), banner)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

func (h *CommunityHandler) Join(c *gin.Context) {
	var req JoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	m, err := h.svc.JoinByCode(c.Request.Context(), req.Code, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// List 公开社区分页，name 为名称过滤
func (h *CommunityHandler) List(c *gin.Context) {
	res, err := h.svc.ListPublic(c.Request.Context(), pageQuery(c), c.Query("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CommunityHandler) Mine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

// Members 成员名单，响应格式与 roster 客户端约定一致
func (h *CommunityHandler) Members(c *gin.Context) {
	users, err := h.svc.ListMembers(c.Request.Context(), c.Query("communityId"))
	if err != nil {
		c.JSON(statusOf(err), roster.Envelope[[]roster.Member]{Code: statusOf(err), Message: err.Error()})
		return
	}
	members := make([]roster.Member, 0, len(users))
	for _, u := range users {
		members = append(members, roster.Member{UserID: u.UserID, Username: u.Username})
	}
	c.JSON(http.StatusOK, roster.Envelope[[]roster.Member]{Code: http.StatusOK, Message: "ok", Data: members})
}

func (h *CommunityHandler) GenerateInvite(c *gin.Context) {
	code, err := h.svc.GenerateInvite(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

func (h *CommunityHandler) RevokeInvite(c *gin.Context) {
	if err := h.svc.RevokeInvite(c.Request.Context(), c.Param("code"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "revoked"})
}
