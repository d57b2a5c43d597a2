package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	// --- Public endpoints (no auth) ---
	s.echo.GET("/v1/_health", s.handleHealth)
	s.echo.POST("/v1/accounts", s.handleCreateAccount)
	s.echo.POST("/v1/session/refresh", s.handleRefreshSession, s.requireRefresh)

	s.echo.GET("/v1/timeline", s.handleGlobalTimeline)
	s.echo.GET("/v1/timeline/following", s.handleFollowingTimeline)
	s.echo.GET("/v1/accounts/:username", s.handleGetAccount)
	s.echo.GET("/v1/accounts/:username/posts", s.handleAccountPosts)
	s.echo.GET("/v1/accounts/:username/posts/:id", s.handleGetPost)
	s.echo.GET("/v1/accounts/:username/comments", s.handleAccountComments)
	s.echo.GET("/v1/accounts/:username/liked-posts", s.handleAccountLikedPosts)
	s.echo.GET("/v1/accounts/:username/liked-comments", s.handleAccountLikedComments)
	s.echo.GET("/v1/accounts/:username/followers", s.handleAccountFollowers)
	s.echo.GET("/v1/accounts/:username/following", s.handleAccountFollowing)

	// --- Mutations (access token required) ---
	authed := s.echo.Group("", s.requireAuth)
	authed.POST("/v1/profile/name", s.handleUpdateName)
	authed.POST("/v1/profile/bio", s.handleUpdateBio)
	authed.POST("/v1/profile/avatar", s.handleUpdateAvatar)
	authed.POST("/v1/follow", s.handleFollow)
	authed.POST("/v1/unfollow", s.handleUnfollow)
	authed.POST("/v1/posts", s.handleCreatePost)
	authed.POST("/v1/comments", s.handleCreateComment)
	authed.POST("/v1/like", s.handleLike)
	authed.POST("/v1/unlike", s.handleUnlike)
}

// handleHealth returns basic server health information.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version": "0.1.0",
	})
}
