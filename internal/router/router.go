package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Yam_Community/internal/handler"
	"Yam_Community/internal/middleware"
	"Yam_Community/internal/pkg"
)

type Handlers struct {
	Community *handler.CommunityHandler
	Post      *handler.PostHandler
	Comment   *handler.CommentHandler
	Like      *handler.LikeHandler
	User      *handler.UserHandler
	// Media is nil when no object store is configured.
	Media *handler.MediaHandler
}

func InitRouter(h Handlers, verifier *pkg.TokenVerifier, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	auth := middleware.AuthMiddleware(verifier)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// 媒体读取
	if h.Media != nil {
		r.GET("/api/media/:name", h.Media.Get)
	}

	// 用户投影同步
	userGroup := r.Group("/api/users")
	userGroup.Use(auth)
	{
		userGroup.POST("/sync", h.User.Sync)
		userGroup.GET("/:id", h.User.Get)
	}

	// 社区相关接口
	communityGroup := r.Group("/api/community")
	communityGroup.Use(auth)
	{
		communityGroup.POST("/create", h.Community.Create)
		communityGroup.GET("/list", h.Community.List)
		communityGroup.GET("/mine", h.Community.Mine)
		communityGroup.GET("/users", h.Community.Members)
		communityGroup.POST("/join", h.Community.Join)
		communityGroup.DELETE("/invite/:code", h.Community.RevokeInvite)
		communityGroup.GET("/:id", h.Community.Get)
		communityGroup.PUT("/:id", h.Community.Edit)
		communityGroup.DELETE("/:id", h.Community.Delete)
		communityGroup.POST("/:id/leave", h.Community.Leave)
		communityGroup.POST("/:id/invite", h.Community.GenerateInvite)
		communityGroup.DELETE("/:id/members/:userId", h.Community.RemoveMember)
	}

	// 帖子相关接口
	postGroup := r.Group("/api/post")
	postGroup.Use(auth)
	{
		postGroup.POST("/create", h.Post.CreatePost)
		postGroup.GET("/list/:id", h.Post.ListByCommunity)
		postGroup.GET("/user/:userId", h.Post.ListByUser)
		postGroup.GET("/:id", h.Post.GetPost)
		postGroup.PUT("/:id", h.Post.UpdatePost)
		postGroup.DELETE("/:id", h.Post.DeletePost)
		postGroup.POST("/:id/like", h.Like.TogglePost)
		postGroup.GET("/:id/like", h.Like.IsPostLiked)
		postGroup.POST("/:id/comments", h.Comment.Create)
		postGroup.GET("/:id/comments", h.Comment.List)
	}

	// 评论相关接口
	commentGroup := r.Group("/api/comment")
	commentGroup.Use(auth)
	{
		commentGroup.GET("/:id", h.Comment.Get)
		commentGroup.PUT("/:id", h.Comment.Update)
		commentGroup.DELETE("/:id", h.Comment.Delete)
		commentGroup.POST("/:id/like", h.Like.ToggleComment)
		commentGroup.GET("/:id/like", h.Like.IsCommentLiked)
	}

	return r
}
