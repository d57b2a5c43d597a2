package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type createAccountRequest struct {
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	AvatarURI string   `json:"avatar_uri"`
	Follow    []string `json:"follow"`
}

type createAccountResponse struct {
	Username   string `json:"username"`
	Identity   string `json:"identity"`
	AccessJWT  string `json:"access_jwt"`
	RefreshJWT string `json:"refresh_jwt"`
}

// handleCreateAccount mints a fresh identity, registers the username, and
// returns a session token pair bound to the identity.
func (s *Server) handleCreateAccount(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}

	identity, err := s.issuer.MintIdentity()
	if err != nil {
		return writeOperationError(c, err)
	}
	if err := s.feed.CreateProfile(c.Request().Context(), identity, strings.TrimSpace(req.Username), req.Name, req.AvatarURI, req.Follow); err != nil {
		return writeOperationError(c, err)
	}

	pair, err := s.issuer.CreateTokenPair(identity)
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, createAccountResponse{
		Username:   strings.TrimSpace(req.Username),
		Identity:   identity,
		AccessJWT:  pair.AccessJWT,
		RefreshJWT: pair.RefreshJWT,
	})
}

// handleRefreshSession exchanges a valid refresh token for a new pair.
func (s *Server) handleRefreshSession(c echo.Context) error {
	pair, err := s.issuer.CreateTokenPair(actingIdentity(c))
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

type profileUpdateRequest struct {
	Username string `json:"username"`
	Value    string `json:"value"`
}

func (s *Server) handleUpdateName(c echo.Context) error {
	return s.handleProfileUpdate(c, s.feed.UpdateName)
}

func (s *Server) handleUpdateBio(c echo.Context) error {
	return s.handleProfileUpdate(c, s.feed.UpdateBio)
}

func (s *Server) handleUpdateAvatar(c echo.Context) error {
	return s.handleProfileUpdate(c, s.feed.UpdateAvatar)
}

func (s *Server) handleProfileUpdate(c echo.Context, update func(ctx context.Context, identity, username, value string) error) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}
	if err := update(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Username), req.Value); err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type followRequest struct {
	Follower string `json:"follower"`
	Target   string `json:"target"`
}

// handleFollow creates a follow edge owned by the acting identity.
func (s *Server) handleFollow(c echo.Context) error {
	var req followRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}
	err := s.feed.Follow(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Follower), strings.TrimSpace(req.Target))
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleUnfollow removes a follow edge owned by the acting identity.
func (s *Server) handleUnfollow(c echo.Context) error {
	var req followRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "INVALID_REQUEST",
			"message": "Invalid JSON body",
		})
	}
	err := s.feed.Unfollow(c.Request().Context(), actingIdentity(c), strings.TrimSpace(req.Follower), strings.TrimSpace(req.Target))
	if err != nil {
		return writeOperationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
