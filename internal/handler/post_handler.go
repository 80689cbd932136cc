package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/model"
	"Yam_Community/internal/service"
)

type PostHandler struct {
	svc *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// CreatePost 创建帖子接口，multipart：communityId、content、image
func (h *PostHandler) CreatePost(c *gin.Context) {
	image, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	post, err := h.svc.Create(c.Request.Context(), c.PostForm("communityId"), currentUser(c), c.PostForm("content"), image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost 未上传新图片时保留原图
func (h *PostHandler) UpdatePost(c *gin.Context) {
	image, err := formFile(c, "image")
	if err != nil {
		fail(c, err)
		return
	}
	post, err := h.svc.Update(c.Request.Context(), c.Param("id"), currentUser(c), c.PostForm("content"), image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost 删除帖子接口
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// ListByCommunity 获取帖子列表接口，支持 search 和 sort=asc|desc
func (h *PostHandler) ListByCommunity(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), model.PostQuery{
		CommunityID: c.Param("id"),
		Search:      c.Query("search"),
		Sort:        model.ParseSortOrder(c.Query("sort")),
		Page:        pageQuery(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	list, err := h.svc.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}
