package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/openfeed/internal/auth"
	"github.com/louisbranch/openfeed/internal/feed/service"
	"github.com/louisbranch/openfeed/internal/feed/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/feed.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return New("127.0.0.1:0", service.NewService(store), auth.NewIssuer("test-secret", "openfeed-test"))
}

func doJSON(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoContentType, echoJSONType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSONType    = "application/json"
)

func registerAccount(t *testing.T, s *Server, username string) (access string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/v1/accounts", "", `{"username":"`+username+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register %q status = %d, body %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessJWT string `json:"access_jwt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.AccessJWT == "" {
		t.Fatal("expected access token in register response")
	}
	return resp.AccessJWT
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/v1/_health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRegisterAndDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	registerAccount(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/v1/accounts", "", `{"username":"alice"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "USERNAME_TAKEN" {
		t.Fatalf("error code = %q, want USERNAME_TAKEN", resp.Error)
	}
}

func TestMutationsRequireBearerToken(t *testing.T) {
	s := newTestServer(t)
	registerAccount(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/v1/posts", "", `{"username":"alice","content":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated post status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/posts", "not-a-token", `{"username":"alice","content":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token post status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestPostCommentLikeFlow(t *testing.T) {
	s := newTestServer(t)
	aliceToken := registerAccount(t, s, "alice")
	bobToken := registerAccount(t, s, "bob")

	rec := doJSON(t, s, http.MethodPost, "/v1/posts", aliceToken, `{"username":"alice","content":"hello world"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create post status = %d, body %s", rec.Code, rec.Body.String())
	}
	var post struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/comments", bobToken, `{"username":"bob","content":"hi","target_owner":"alice","target_post_id":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create comment status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/like", bobToken, `{"username":"bob","target_owner":"alice","target_kind":"post","target_id":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("like status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/accounts/alice/posts/0?viewer=bob", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get post status = %d, body %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Post struct {
			LikeCount    int64 `json:"like_count"`
			CommentCount int64 `json:"comment_count"`
			Liked        bool  `json:"liked"`
		} `json:"post"`
		Comments []struct {
			Content string `json:"content"`
		} `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode post detail: %v", err)
	}
	if detail.Post.LikeCount != 1 || detail.Post.CommentCount != 1 || !detail.Post.Liked {
		t.Fatalf("post detail = %+v, want one like, one comment, liked", detail.Post)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].Content != "hi" {
		t.Fatalf("comments = %+v, want [hi]", detail.Comments)
	}
}

func TestLikeRejectsUnknownKind(t *testing.T) {
	s := newTestServer(t)
	token := registerAccount(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/v1/like", token, `{"username":"alice","target_owner":"alice","target_kind":"story","target_id":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "INVALID_PUBLICATION_KIND" {
		t.Fatalf("error code = %q, want INVALID_PUBLICATION_KIND", resp.Error)
	}
}

func TestOwnershipEnforcedAcrossIdentities(t *testing.T) {
	s := newTestServer(t)
	registerAccount(t, s, "alice")
	bobToken := registerAccount(t, s, "bob")

	rec := doJSON(t, s, http.MethodPost, "/v1/profile/name", bobToken, `{"username":"alice","value":"Mallory"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-identity update status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "NOT_OWNER" {
		t.Fatalf("error code = %q, want NOT_OWNER", resp.Error)
	}
}

func TestFollowAndTimelines(t *testing.T) {
	s := newTestServer(t)
	aliceToken := registerAccount(t, s, "alice")
	bobToken := registerAccount(t, s, "bob")

	rec := doJSON(t, s, http.MethodPost, "/v1/follow", aliceToken, `{"follower":"alice","target":"bob"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("follow status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, s, http.MethodPost, "/v1/follow", aliceToken, `{"follower":"alice","target":"bob"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate follow status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/posts", bobToken, `{"username":"bob","content":"from bob"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create post status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/timeline/following?username=alice", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("following timeline status = %d", rec.Code)
	}
	var views []struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if len(views) != 1 || views[0].Content != "from bob" {
		t.Fatalf("following timeline = %+v, want [from bob]", views)
	}

	rec = doJSON(t, s, http.MethodGet, "/v1/timeline?page_size=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("global timeline status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("global timeline len = %d, want 1", len(views))
	}
}

func TestRefreshSessionIssuesNewPair(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/accounts", "", `{"username":"alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}
	var creds struct {
		RefreshJWT string `json:"refresh_jwt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &creds); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/session/refresh", creds.RefreshJWT, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
	var pair struct {
		AccessJWT string `json:"access_jwt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if pair.AccessJWT == "" {
		t.Fatal("expected access token from refresh")
	}

	// An access token must not pass as a refresh token.
	access := registerAccount(t, s, "bob")
	rec = doJSON(t, s, http.MethodPost, "/v1/session/refresh", access, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
