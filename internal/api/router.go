package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/service"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
	"github.com/ShazeRx/pigeon-app/pkg/telemetry"
)

// Router sets up API routes
type Router struct {
	tokens   *auth.TokenService
	auth     *AuthHandler
	channels *ChannelHandler
	posts    *PostHandler
	comments *CommentHandler
	logger   *zap.Logger
}

// NewRouter creates a new API router over the wired services
func NewRouter(tokens *auth.TokenService, authSvc *service.AuthService, channelSvc *service.ChannelService, postSvc *service.PostService, commentSvc *service.CommentService) *Router {
	return &Router{
		tokens:   tokens,
		auth:     NewAuthHandler(authSvc),
		channels: NewChannelHandler(channelSvc),
		posts:    NewPostHandler(postSvc),
		comments: NewCommentHandler(commentSvc),
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(traceMiddleware())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	public := engine.Group("/api/auth")
	{
		public.POST("/register/", r.auth.Register)
		public.POST("/login/", r.auth.Login)
		public.POST("/refresh/", r.auth.Refresh)
		public.GET("/email-verify/", r.auth.VerifyEmail)
	}

	private := engine.Group("/api", auth.Middleware(r.tokens))
	{
		private.GET("/channels/", r.channels.List)
		private.POST("/channels/", r.channels.Create)
		private.GET("/channels/:id/", r.channels.Get)
		private.PATCH("/channels/:id/", r.channels.Update)
		private.DELETE("/channels/:id/", r.channels.Delete)
		private.POST("/channels/:id/authenticate/", r.channels.Join)
		private.POST("/channels/:id/unauthenticate/", r.channels.Leave)
		private.GET("/channels/:id/generate_password/", r.channels.RegeneratePassword)

		private.GET("/posts/", r.posts.List)
		private.POST("/posts/", r.posts.Create)
		private.GET("/posts/:id/", r.posts.Get)
		private.PATCH("/posts/:id/", r.posts.Update)
		private.DELETE("/posts/:id/", r.posts.Delete)
		private.POST("/posts/:id/like/", r.posts.ToggleLike)

		private.GET("/posts/:id/comments/", r.comments.List)
		private.POST("/posts/:id/comments/", r.comments.Create)
		private.PATCH("/posts/:id/comments/:cid/", r.comments.Update)
		private.DELETE("/posts/:id/comments/:cid/", r.comments.Delete)
	}
}

// traceMiddleware opens a span per request and threads it through the
// request context.
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "pigeon-api",
	})
}
