package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/louisbranch/openfeed/internal/feed/domain"
)

type createPostRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

// handleCreatePost appends a post to an account owned by the acting
// identity.
func (s *Server) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}
	post, err := s.feed.CreatePost(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Username), req.Content)
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, postToJSON(post))
}

type createCommentRequest struct {
	Username     string `json:"username"`
	Content      string `json:"content"`
	TargetOwner  string `json:"target_owner"`
	TargetPostID int64  `json:"target_post_id"`
}

// handleCreateComment appends a comment targeting an existing post.
func (s *Server) handleCreateComment(c echo.Context) error {
	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}
	comment, err := s.feed.CreateComment(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Username), req.Content, strings.TrimSpace(req.TargetOwner), req.TargetPostID)
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, commentToJSON(comment))
}

type likeRequest struct {
	Username    string `json:"username"`
	TargetOwner string `json:"target_owner"`
	TargetKind  string `json:"target_kind"`
	TargetID    int64  `json:"target_id"`
}

// handleLike records a like on a post or comment.
func (s *Server) handleLike(c echo.Context) error {
	req, ref, ok := s.bindLikeRequest(c)
	if !ok {
		return nil
	}
	if err := s.feed.Like(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Username), ref); err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleUnlike removes a like from a post or comment.
func (s *Server) handleUnlike(c echo.Context) error {
	req, ref, ok := s.bindLikeRequest(c)
	if !ok {
		return nil
	}
	if err := s.feed.Unlike(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Username), ref); err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// bindLikeRequest parses a like/unlike body, resolving the target kind
// string. On failure the response has already been rendered and ok is
// false.
func (s *Server) bindLikeRequest(c echo.Context) (likeRequest, domain.Ref, bool) {
	var req likeRequest
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
		return req, domain.Ref{}, false
	}
	kind, err := domain.ParseKind(req.TargetKind)
	if err != nil {
		_ = writeOperationError(c, err)
		return req, domain.Ref{}, false
	}
	return req, domain.Ref{
		Owner: strings.TrimSpace(req.TargetOwner),
		Kind:  kind,
		ID:    req.TargetID,
	}, true
}
