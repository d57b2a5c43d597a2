package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/louisbranch/openfeed/internal/feed/storage"
	"github.com/louisbranch/openfeed/internal/platform/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type postJSON struct {
	Owner     string    `json:"owner"`
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type postViewJSON struct {
	postJSON
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
	Liked        bool  `json:"liked"`
}

type refJSON struct {
	Owner string `json:"owner"`
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
}

type commentJSON struct {
	Owner     string    `json:"owner"`
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Target    refJSON   `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

type commentViewJSON struct {
	commentJSON
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

type accountJSON struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURI string    `json:"avatar_uri"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func postToJSON(post storage.Post) postJSON {
	return postJSON{
		Owner:     post.Owner,
		ID:        post.ID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}
}

func commentToJSON(comment storage.Comment) commentJSON {
	return commentJSON{
		Owner:   comment.Owner,
		ID:      comment.ID,
		Content: comment.Content,
		Target: refJSON{
			Owner: comment.Target.Owner,
			Kind:  comment.Target.Kind.String(),
			ID:    comment.Target.ID,
		},
		CreatedAt: comment.CreatedAt,
	}
}

func postViewsToJSON(views []storage.PostView) []postViewJSON {
	out := make([]postViewJSON, 0, len(views))
	for _, view := range views {
		out = append(out, postViewJSON{
			postJSON:     postToJSON(view.Post),
			LikeCount:    view.LikeCount,
			CommentCount: view.CommentCount,
			Liked:        view.ViewerLiked,
		})
	}
	return out
}

func commentViewsToJSON(views []storage.CommentView) []commentViewJSON {
	out := make([]commentViewJSON, 0, len(views))
	for _, view := range views {
		out = append(out, commentViewJSON{
			commentJSON: commentToJSON(view.Comment),
			LikeCount:   view.LikeCount,
			Liked:       view.ViewerLiked,
		})
	}
	return out
}

// queryWindow reads page_size and page query params, clamping the page
// size to the API bounds. A negative page survives to the query layer,
// which degrades it to an empty result.
func queryWindow(c echo.Context) (pageSize, page int) {
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	pageSize = pagination.ClampPageSize(pageSize, pagination.PageSizeConfig{
		Default: defaultPageSize,
		Max:     maxPageSize,
	})
	page, _ = strconv.Atoi(c.QueryParam("page"))
	return pageSize, page
}

func viewerParam(c echo.Context) string {
	return c.QueryParam("viewer")
}

// handleGlobalTimeline returns one page of the global timeline.
func (s *Server) handleGlobalTimeline(c echo.Context) error {
	pageSize, page := queryWindow(c)
	views := s.feed.GlobalTimeline(c.Request().Context(), viewerParam(c), pageSize, page)
	return c.JSON(http.StatusOK, postViewsToJSON(views))
}

// handleFollowingTimeline returns one page of posts from accounts the
// username follows.
func (s *Server) handleFollowingTimeline(c echo.Context) error {
	username := c.QueryParam("username")
	viewer := viewerParam(c)
	if viewer == "" {
		viewer = username
	}
	pageSize, page := queryWindow(c)
	views := s.feed.FollowingTimeline(c.Request().Context(), username, viewer, pageSize, page)
	return c.JSON(http.StatusOK, postViewsToJSON(views))
}

// handleGetAccount resolves a profile by username.
func (s *Server) handleGetAccount(c echo.Context) error {
	account, ok := s.feed.Account(c.Request().Context(), c.Param("username"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error":   "USERNAME_NOT_REGISTERED",
			"message": "username is not registered",
		})
	}
	return c.JSON(http.StatusOK, accountJSON{
		Username:  account.Username,
		Name:      account.Name,
		AvatarURI: account.AvatarURI,
		Bio:       account.Bio,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	})
}

// handleGetPost resolves a single post plus one page of its comments.
func (s *Server) handleGetPost(c echo.Context) error {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error":   "PUBLICATION_NOT_FOUND",
			"message": "publication not found",
		})
	}
	pageSize, page := queryWindow(c)
	view, comments, ok := s.feed.GetPost(c.Request().Context(), c.Param("username"), viewerParam(c), postID, pageSize, page)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error":   "PUBLICATION_NOT_FOUND",
			"message": "publication not found",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"post": postViewJSON{
			postJSON:     postToJSON(view.Post),
			LikeCount:    view.LikeCount,
			CommentCount: view.CommentCount,
			Liked:        view.ViewerLiked,
		},
		"comments": commentViewsToJSON(comments),
	})
}

// handleAccountPosts returns one page of an account's posts.
func (s *Server) handleAccountPosts(c echo.Context) error {
	pageSize, page := queryWindow(c)
	views := s.feed.AccountPosts(c.Request().Context(), c.Param("username"), viewerParam(c), pageSize, page)
	return c.JSON(http.StatusOK, postViewsToJSON(views))
}

// handleAccountComments returns one page of an account's comments.
func (s *Server) handleAccountComments(c echo.Context) error {
	pageSize, page := queryWindow(c)
	views := s.feed.AccountComments(c.Request().Context(), c.Param("username"), viewerParam(c), pageSize, page)
	return c.JSON(http.StatusOK, commentViewsToJSON(views))
}

// handleAccountLikedPosts returns one page of posts the account liked.
func (s *Server) handleAccountLikedPosts(c echo.Context) error {
	pageSize, page := queryWindow(c)
	views := s.feed.AccountLikedPosts(c.Request().Context(), c.Param("username"), viewerParam(c), pageSize, page)
	return c.JSON(http.StatusOK, postViewsToJSON(views))
}

// handleAccountLikedComments returns one page of comments the account
// liked.
func (s *Server) handleAccountLikedComments(c echo.Context) error {
	pageSize, page := queryWindow(c)
	views := s.feed.AccountLikedComments(c.Request().Context(), c.Param("username"), viewerParam(c), pageSize, page)
	return c.JSON(http.StatusOK, commentViewsToJSON(views))
}

// handleAccountFollowers returns one page of follower usernames.
func (s *Server) handleAccountFollowers(c echo.Context) error {
	pageSize, page := queryWindow(c)
	followers := s.feed.AccountFollowers(c.Request().Context(), c.Param("username"), pageSize, page)
	return c.JSON(http.StatusOK, followers)
}

// handleAccountFollowing returns one page of followed usernames.
func (s *Server) handleAccountFollowing(c echo.Context) error {
	pageSize, page := queryWindow(c)
	following := s.feed.AccountFollowing(c.Request().Context(), c.Param("username"), pageSize, page)
	return c.JSON(http.StatusOK, following)
}
