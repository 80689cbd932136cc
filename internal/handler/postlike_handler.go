package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/model"
	"Yam_Community/internal/service"
)

// LikeHandler 帖子和评论的点赞切换
type LikeHandler struct {
	posts    *service.PostService
	comments *service.CommentService
}

func NewLikeHandler(posts *service.PostService, comments *service.CommentService) *LikeHandler {
	return &LikeHandler{posts: posts, comments: comments}
}

func (h *LikeHandler) TogglePost(c *gin.Context) {
	res, err := h.posts.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respond(c, res, err)
}

func (h *LikeHandler) ToggleComment(c *gin.Context) {
	res, err := h.comments.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respond(c, res, err)
}

func (h *LikeHandler) respond(c *gin.Context, res model.ToggleResult, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": res.Action(), "liked": res.Liked, "likesCount": res.LikesCount})
}

func (h *LikeHandler) IsPostLiked(c *gin.Context) {
	liked, err := h.posts.HasLiked(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *LikeHandler) IsCommentLiked(c *gin.Context) {
	liked, err := h.comments.HasLiked(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
