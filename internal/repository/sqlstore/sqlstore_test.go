package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"catblog-backend/internal/model"
	"catblog-backend/internal/repository/interfaces"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, SQLite, "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db, SQLite))
	// 重复执行迁移不应报错
	require.NoError(t, Migrate(ctx, db, SQLite))
	return db
}

func createUser(t *testing.T, repo interfaces.UserRepository, name string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     name,
		Email:        name + "@x.com",
		PasswordHash: "hash",
		Avatar:       "default-avatar.jpg",
		CreatedAt:    baseTime,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func createPost(t *testing.T, repo interfaces.PostRepository, userID int, title, category string, at time.Time) *model.Post {
	t.Helper()
	post := &model.Post{
		UserID:    userID,
		Title:     title,
		Content:   "content of " + title,
		Category:  category,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, repo.Create(context.Background(), post))
	return post
}

func TestUserRepositoryUniqueness(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	assert.NotZero(t, alice.ID)

	dup := &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h", Avatar: "a", CreatedAt: baseTime}
	err := users.Create(ctx, dup)
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)

	dup = &model.User{Username: "alice2", Email: "alice@x.com", PasswordHash: "h", Avatar: "a", CreatedAt: baseTime}
	err = users.Create(ctx, dup)
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)

	found, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice@x.com", found.Email)
	assert.True(t, found.CreatedAt.Equal(baseTime))

	missing, err := users.FindByEmail(ctx, "nobody@x.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositoryUpdateAvatar(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	ctx := context.Background()
	alice := createUser(t, users, "alice")

	require.NoError(t, users.UpdateAvatar(ctx, alice.ID, "new.png"))
	found, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.png", found.Avatar)

	assert.ErrorIs(t, users.UpdateAvatar(ctx, 999, "x.png"), interfaces.ErrNotFound)
}

func TestPostRepositoryListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, users, "alice")

	for i := 0; i < 10; i++ {
		category := "general"
		if i%2 == 1 {
			category = "Cats"
		}
		createPost(t, posts, alice.ID, fmt.Sprintf("post %d", i), category, baseTime.Add(time.Duration(i)*time.Minute))
	}

	page, err := posts.List(ctx, "", 6, 0)
	require.NoError(t, err)
	require.Len(t, page, 6)
	assert.Equal(t, "post 9", page[0].Title)
	assert.Equal(t, "post 4", page[5].Title)
	for i := 1; i < len(page); i++ {
		assert.True(t, page[i-1].CreatedAt.After(page[i].CreatedAt))
	}
	assert.Equal(t, "alice", page[0].Author.Username)

	overrun, err := posts.List(ctx, "", 6, 998*6)
	require.NoError(t, err)
	assert.Empty(t, overrun)

	cats, err := posts.List(ctx, "Cats", 6, 0)
	require.NoError(t, err)
	assert.Len(t, cats, 5)

	lower, err := posts.List(ctx, "cats", 6, 0)
	require.NoError(t, err)
	assert.Empty(t, lower)

	total, err := posts.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	total, err = posts.Count(ctx, "Cats")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestPostRepositoryFindByID(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, users, "alice")

	post := &model.Post{UserID: alice.ID, Title: "Cats", Content: "meow", Category: "general",
		Image: "abc.png", CreatedAt: baseTime, UpdatedAt: baseTime}
	require.NoError(t, posts.Create(ctx, post))

	found, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "abc.png", found.Image)
	assert.Equal(t, alice.ID, found.Author.ID)

	missing, err := posts.FindByID(ctx, 12345)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := posts.Exists(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = posts.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	engagement := NewEngagementRepository(db, SQLite)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	post := createPost(t, posts, alice.ID, "Cats", "general", baseTime)

	liked, count, err := engagement.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = engagement.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, count)

	liked, count, err = engagement.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, count)

	stored, err := engagement.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, count, stored)

	isLiked, err := engagement.IsLiked(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	ids, err := engagement.LikedPostIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{post.ID}, ids)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	engagement := NewEngagementRepository(db, SQLite)
	bob := createUser(t, users, "bob")

	_, _, err := engagement.ToggleLike(context.Background(), bob.ID, 404)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestLikeUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	ctx := context.Background()
	alice := createUser(t, users, "alice")
	post := createPost(t, posts, alice.ID, "Cats", "general", baseTime)

	insert := `INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)`
	_, err := db.ExecContext(ctx, insert, alice.ID, post.ID, baseTime)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, alice.ID, post.ID, baseTime)
	require.Error(t, err)
	assert.True(t, SQLite.IsUniqueViolation(err))
	assert.False(t, SQLite.IsUniqueViolation(sql.ErrNoRows))
	assert.False(t, MySQL.IsUniqueViolation(err))
}

func TestCommentsAndCounts(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	engagement := NewEngagementRepository(db, SQLite)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	first := createPost(t, posts, alice.ID, "first", "general", baseTime)
	second := createPost(t, posts, alice.ID, "second", "general", baseTime.Add(time.Minute))

	for i, content := range []string{"later", "earlier"} {
		c := &model.Comment{
			UserID:    bob.ID,
			PostID:    first.ID,
			Content:   content,
			CreatedAt: baseTime.Add(time.Duration(2-i) * time.Hour),
		}
		require.NoError(t, engagement.CreateComment(ctx, c))
		assert.NotZero(t, c.ID)
	}
	_, _, err := engagement.ToggleLike(ctx, bob.ID, second.ID)
	require.NoError(t, err)

	comments, err := engagement.ListComments(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "earlier", comments[0].Content)
	assert.Equal(t, "bob", comments[0].Author.Username)

	commentCounts, err := engagement.CommentCounts(ctx, []int{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{first.ID: 2}, commentCounts)

	likeCounts, err := engagement.LikeCounts(ctx, []int{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{second.ID: 1}, likeCounts)

	empty, err := engagement.LikeCounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeletingPostCascades(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, SQLite)
	posts := NewPostRepository(db)
	engagement := NewEngagementRepository(db, SQLite)
	ctx := context.Background()

	alice := createUser(t, users, "alice")
	post := createPost(t, posts, alice.ID, "Cats", "general", baseTime)
	_, _, err := engagement.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	require.NoError(t, engagement.CreateComment(ctx, &model.Comment{
		UserID: alice.ID, PostID: post.ID, Content: "hi", CreatedAt: baseTime,
	}))

	_, err = db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, post.ID)
	require.NoError(t, err)

	var likes, comments int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes`).Scan(&likes))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&comments))
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, " FOR UPDATE", d.LockClause)

	d, err = DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d.Driver)

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestDialectRetryableErrors(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}

	assert.True(t, MySQL.IsRetryable(deadlock))
	assert.True(t, MySQL.IsRetryable(fmt.Errorf("toggle: %w", deadlock)))
	assert.True(t, MySQL.IsRetryable(lockWait))
	assert.False(t, MySQL.IsRetryable(duplicate))
	assert.True(t, MySQL.IsUniqueViolation(duplicate))
	assert.False(t, MySQL.IsUniqueViolation(deadlock))
	assert.False(t, MySQL.IsRetryable(interfaces.ErrNotFound))
	assert.False(t, MySQL.IsRetryable(nil))

	assert.True(t, SQLite.IsRetryable(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, SQLite.IsRetryable(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, SQLite.IsRetryable(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, SQLite.IsRetryable(deadlock))
}
