package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/openfeed/internal/feed/domain"
	"github.com/louisbranch/openfeed/internal/feed/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/feed.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreateAccount(t *testing.T, store *Store, username string, follows ...string) {
	t.Helper()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	err := store.CreateAccount(context.Background(), storage.Account{
		Username:  username,
		Identity:  "identity-" + username,
		Name:      username,
		CreatedAt: now,
	}, follows)
	if err != nil {
		t.Fatalf("create account %q: %v", username, err)
	}
}

func TestCreateAccountAndResolveIdentity(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")

	identity, err := store.ResolveIdentity(context.Background(), "alice")
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	if identity != "identity-alice" {
		t.Fatalf("identity = %q, want identity-alice", identity)
	}

	account, err := store.GetAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Username != "alice" || account.Bio != "" {
		t.Fatalf("account = %+v, want alice with empty bio", account)
	}

	if _, err := store.ResolveIdentity(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("resolve missing err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")

	err := store.CreateAccount(context.Background(), storage.Account{
		Username: "alice",
		Identity: "identity-other",
	}, nil)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate register err = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestCreateAccountWithFollowListIsAtomic(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "bob")

	err := store.CreateAccount(context.Background(), storage.Account{
		Username: "alice",
		Identity: "identity-alice",
	}, []string{"bob", "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("follow list err = %v, want %v", err, storage.ErrNotFound)
	}

	// The username registration must have rolled back with the failed edge.
	if _, err := store.ResolveIdentity(context.Background(), "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("resolve after rollback err = %v, want %v", err, storage.ErrNotFound)
	}

	if err := store.CreateAccount(context.Background(), storage.Account{
		Username: "alice",
		Identity: "identity-alice",
	}, []string{"bob"}); err != nil {
		t.Fatalf("create account with valid follow list: %v", err)
	}
	following, err := store.ListFollowing(context.Background(), "alice", 10, 0)
	if err != nil {
		t.Fatalf("list following: %v", err)
	}
	if len(following) != 1 || following[0] != "bob" {
		t.Fatalf("following = %v, want [bob]", following)
	}
}

func TestUpdateProfileFields(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")

	later := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	if err := store.UpdateAccountName(context.Background(), "alice", "Alice A.", later); err != nil {
		t.Fatalf("update name: %v", err)
	}
	if err := store.UpdateAccountBio(context.Background(), "alice", "hello there", later); err != nil {
		t.Fatalf("update bio: %v", err)
	}
	if err := store.UpdateAccountAvatar(context.Background(), "alice", "https://cdn.example/a.png", later); err != nil {
		t.Fatalf("update avatar: %v", err)
	}

	account, err := store.GetAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Name != "Alice A." || account.Bio != "hello there" || account.AvatarURI != "https://cdn.example/a.png" {
		t.Fatalf("account = %+v, want updated fields", account)
	}
	if !account.UpdatedAt.Equal(later) {
		t.Fatalf("updated at = %v, want %v", account.UpdatedAt, later)
	}

	if err := store.UpdateAccountBio(context.Background(), "missing", "x", later); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing profile err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestFollowEdgeLifecycle(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	edge := storage.FollowEdge{Follower: "alice", Target: "bob", CreatedAt: now}
	if err := store.AddFollow(context.Background(), edge); err != nil {
		t.Fatalf("add follow: %v", err)
	}
	if err := store.AddFollow(context.Background(), edge); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate follow err = %v, want %v", err, storage.ErrAlreadyExists)
	}

	followers, err := store.ListFollowers(context.Background(), "bob", 10, 0)
	if err != nil {
		t.Fatalf("list followers: %v", err)
	}
	if len(followers) != 1 || followers[0] != "alice" {
		t.Fatalf("followers = %v, want [alice]", followers)
	}

	if err := store.RemoveFollow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("remove follow: %v", err)
	}
	if err := store.RemoveFollow(context.Background(), "alice", "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("remove missing follow err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestAddFollowRequiresRegisteredEndpoints(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	err := store.AddFollow(context.Background(), storage.FollowEdge{Follower: "alice", Target: "ghost", CreatedAt: now})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("follow unregistered target err = %v, want %v", err, storage.ErrNotFound)
	}
	err = store.AddFollow(context.Background(), storage.FollowEdge{Follower: "ghost", Target: "alice", CreatedAt: now})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("follow from unregistered follower err = %v, want %v", err, storage.ErrNotFound)
	}

	// No phantom edge may survive the failed inserts.
	followers, err := store.ListFollowers(context.Background(), "alice", 10, 0)
	if err != nil {
		t.Fatalf("list followers: %v", err)
	}
	if len(followers) != 0 {
		t.Fatalf("followers = %v, want empty", followers)
	}
	following, err := store.ListFollowing(context.Background(), "alice", 10, 0)
	if err != nil {
		t.Fatalf("list following: %v", err)
	}
	if len(following) != 0 {
		t.Fatalf("following = %v, want empty", following)
	}
}

func TestCreatePostAssignsMonotonicIDs(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	// Identical timestamps must still produce distinct ids.
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	first, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "one", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	second, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "two", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("post ids = %d, %d, want 0, 1", first.ID, second.ID)
	}

	// Counters are per owner, not global.
	other, err := store.CreatePost(context.Background(), storage.Post{Owner: "bob", Content: "hi", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if other.ID != 0 {
		t.Fatalf("bob's first post id = %d, want 0", other.ID)
	}
}

func TestCreateCommentRoundTrip(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	post, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "hello", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	comment, err := store.CreateComment(context.Background(), storage.Comment{
		Owner:     "bob",
		Content:   "hi",
		Target:    domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: post.ID},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.ID != 0 {
		t.Fatalf("comment id = %d, want 0", comment.ID)
	}

	// The post's comment references resolve back to bob's comment.
	refs, err := store.ListPostComments(context.Background(), "alice", post.ID, "", 10, 0)
	if err != nil {
		t.Fatalf("list post comments: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("comment refs len = %d, want 1", len(refs))
	}
	if refs[0].Owner != "bob" || refs[0].ID != comment.ID {
		t.Fatalf("comment ref = %s/%d, want bob/0", refs[0].Owner, refs[0].ID)
	}
	if refs[0].Target.Owner != "alice" || refs[0].Target.ID != post.ID {
		t.Fatalf("comment target = %s/%d, want alice/%d", refs[0].Target.Owner, refs[0].Target.ID, post.ID)
	}
}

func TestCreateCommentMissingTarget(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	_, err := store.CreateComment(context.Background(), storage.Comment{
		Owner:   "bob",
		Content: "hi",
		Target:  domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: 7},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("comment on missing post err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestLikeDuplicateDetectionIgnoresTimestamp(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	post, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "hello", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	ref := domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: post.ID}

	if err := store.AddLike(context.Background(), storage.Like{Liker: "bob", Target: ref, CreatedAt: now}); err != nil {
		t.Fatalf("add like: %v", err)
	}
	// A second like at a different time is still the same (liker, ref) pair.
	err = store.AddLike(context.Background(), storage.Like{Liker: "bob", Target: ref, CreatedAt: now.Add(time.Hour)})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate like err = %v, want %v", err, storage.ErrAlreadyExists)
	}

	if err := store.RemoveLike(context.Background(), "bob", ref); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := store.RemoveLike(context.Background(), "bob", ref); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("remove missing like err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestLikeMissingTarget(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	err := store.AddLike(context.Background(), storage.Like{
		Liker:  "bob",
		Target: domain.Ref{Owner: "alice", Kind: domain.KindComment, ID: 3},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("like missing comment err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestGetPostViewEngagement(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	post, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "hello", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	ref := domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: post.ID}
	if err := store.AddLike(context.Background(), storage.Like{Liker: "bob", Target: ref, CreatedAt: now}); err != nil {
		t.Fatalf("add like: %v", err)
	}

	view, err := store.GetPostView(context.Background(), "alice", "bob", post.ID)
	if err != nil {
		t.Fatalf("get post view: %v", err)
	}
	if view.Content != "hello" || view.LikeCount != 1 || !view.ViewerLiked {
		t.Fatalf("view = %+v, want liked hello with one like", view)
	}

	// A different viewer sees the same counts but no liked flag.
	view, err = store.GetPostView(context.Background(), "alice", "alice", post.ID)
	if err != nil {
		t.Fatalf("get post view: %v", err)
	}
	if view.LikeCount != 1 || view.ViewerLiked {
		t.Fatalf("view = %+v, want unliked with one like", view)
	}

	if _, err := store.GetPostView(context.Background(), "alice", "bob", 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing post err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestGlobalTimelineOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, spec := range []struct {
		owner   string
		content string
	}{
		{"alice", "first"},
		{"bob", "second"},
		{"alice", "third"},
	} {
		if _, err := store.CreatePost(context.Background(), storage.Post{
			Owner:     spec.owner,
			Content:   spec.content,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create post %q: %v", spec.content, err)
		}
	}

	page, err := store.ListGlobalTimeline(context.Background(), "", 2, 0)
	if err != nil {
		t.Fatalf("list global timeline: %v", err)
	}
	if len(page) != 2 || page[0].Content != "third" || page[1].Content != "second" {
		t.Fatalf("timeline page 0 = %+v, want [third second]", page)
	}

	page, err = store.ListGlobalTimeline(context.Background(), "", 2, 2)
	if err != nil {
		t.Fatalf("list global timeline offset: %v", err)
	}
	if len(page) != 1 || page[0].Content != "first" {
		t.Fatalf("timeline page 1 = %+v, want [first]", page)
	}
}

func TestFollowingTimelineFiltersByFollowSet(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")
	mustCreateAccount(t, store, "carol")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.AddFollow(context.Background(), storage.FollowEdge{Follower: "alice", Target: "bob", CreatedAt: now}); err != nil {
		t.Fatalf("add follow: %v", err)
	}
	for _, spec := range []struct {
		owner   string
		content string
	}{
		{"bob", "from bob"},
		{"carol", "from carol"},
	} {
		if _, err := store.CreatePost(context.Background(), storage.Post{Owner: spec.owner, Content: spec.content, CreatedAt: now}); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	page, err := store.ListFollowingTimeline(context.Background(), "alice", "alice", 10, 0)
	if err != nil {
		t.Fatalf("list following timeline: %v", err)
	}
	if len(page) != 1 || page[0].Content != "from bob" {
		t.Fatalf("following timeline = %+v, want [from bob]", page)
	}
}

func TestListAccountLikedPostsAndComments(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")
	mustCreateAccount(t, store, "bob")

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	post, err := store.CreatePost(context.Background(), storage.Post{Owner: "alice", Content: "hello", CreatedAt: now})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	comment, err := store.CreateComment(context.Background(), storage.Comment{
		Owner:     "alice",
		Content:   "self reply",
		Target:    domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: post.ID},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	postRef := domain.Ref{Owner: "alice", Kind: domain.KindPost, ID: post.ID}
	commentRef := domain.Ref{Owner: "alice", Kind: domain.KindComment, ID: comment.ID}
	if err := store.AddLike(context.Background(), storage.Like{Liker: "bob", Target: postRef, CreatedAt: now}); err != nil {
		t.Fatalf("like post: %v", err)
	}
	if err := store.AddLike(context.Background(), storage.Like{Liker: "bob", Target: commentRef, CreatedAt: now}); err != nil {
		t.Fatalf("like comment: %v", err)
	}

	likedPosts, err := store.ListAccountLikedPosts(context.Background(), "bob", "bob", 10, 0)
	if err != nil {
		t.Fatalf("list liked posts: %v", err)
	}
	if len(likedPosts) != 1 || likedPosts[0].Content != "hello" || !likedPosts[0].ViewerLiked {
		t.Fatalf("liked posts = %+v, want [hello]", likedPosts)
	}

	likedComments, err := store.ListAccountLikedComments(context.Background(), "bob", "bob", 10, 0)
	if err != nil {
		t.Fatalf("list liked comments: %v", err)
	}
	if len(likedComments) != 1 || likedComments[0].Content != "self reply" {
		t.Fatalf("liked comments = %+v, want [self reply]", likedComments)
	}
}

func TestListQueriesDegradeOnInvalidWindow(t *testing.T) {
	store := openTestStore(t)
	mustCreateAccount(t, store, "alice")

	page, err := store.ListGlobalTimeline(context.Background(), "", 0, 0)
	if err != nil {
		t.Fatalf("list with zero page size: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("page = %+v, want empty", page)
	}

	followers, err := store.ListFollowers(context.Background(), "alice", 10, -1)
	if err != nil {
		t.Fatalf("list with negative offset: %v", err)
	}
	if len(followers) != 0 {
		t.Fatalf("followers = %v, want empty", followers)
	}
}
