package user

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"catblog-backend/internal/errors"
	"catblog-backend/internal/model"
	"catblog-backend/internal/service"
	"catblog-backend/internal/session"
	"catblog-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, userID int, input model.NewPost, image *service.Upload) (*model.Post, error) {
	args := m.Called(userID, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) ListUserPosts(ctx context.Context, userID int) ([]*model.Post, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

type MockAvatarService struct {
	mock.Mock
}

func (m *MockAvatarService) UploadAvatar(ctx context.Context, userID int, file io.Reader, originalFilename string) (*model.AvatarResult, error) {
	args := m.Called(userID, file != nil, originalFilename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AvatarResult), args.Error(1)
}

var (
	_ service.PostServiceInterface   = (*MockPostService)(nil)
	_ service.AvatarServiceInterface = (*MockAvatarService)(nil)
)

func newProfileRouter(t *testing.T, users *MockUserService, posts *MockPostService, avatars *MockAvatarService, userID int) *gin.Engine {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	handler := NewProfileHandler(users, posts, avatars, store)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID > 0 {
			session.SetCurrentUserID(c, userID)
		}
		c.Next()
	})
	router.GET("/profile", handler.GetProfile)
	router.POST("/profile/avatar", handler.UploadAvatar)
	return router
}

func TestGetProfile(t *testing.T) {
	users := new(MockUserService)
	posts := new(MockPostService)
	router := newProfileRouter(t, users, posts, new(MockAvatarService), 1)

	users.On("GetUserByID", 1).Return(&model.User{ID: 1, Username: "alice", Avatar: "a.png"}, nil)
	posts.On("ListUserPosts", 1).Return([]*model.Post{{ID: 5, Title: "Cats"}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"avatar_url":"/uploads/avatars/a.png"`)
	assert.Contains(t, w.Body.String(), `"title":"Cats"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func avatarRequest(t *testing.T, filename string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/profile/avatar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadAvatar(t *testing.T) {
	avatars := new(MockAvatarService)
	router := newProfileRouter(t, new(MockUserService), new(MockPostService), avatars, 1)

	avatars.On("UploadAvatar", 1, true, "me.jpg").Return(&model.AvatarResult{Success: true, Avatar: "new.jpg"}, nil)
	avatars.On("UploadAvatar", 1, true, "photo.exe").Return(nil, errors.New(errors.ErrBadRequest, "invalid type"))
	avatars.On("UploadAvatar", 1, false, "").Return(nil, errors.New(errors.ErrBadRequest, "no file"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "me.jpg"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"avatar":"new.jpg"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "photo.exe"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid type"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/profile/avatar", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"no file"}`, w.Body.String())
}

func TestUploadAvatarUnauthenticated(t *testing.T) {
	avatars := new(MockAvatarService)
	router := newProfileRouter(t, new(MockUserService), new(MockPostService), avatars, 0)

	avatars.On("UploadAvatar", 0, true, "me.jpg").Return(nil, errors.New(errors.ErrUnauthorized, "Please login to upload an avatar"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "me.jpg"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestUploadAvatarProcessingError(t *testing.T) {
	avatars := new(MockAvatarService)
	router := newProfileRouter(t, new(MockUserService), new(MockPostService), avatars, 1)

	avatars.On("UploadAvatar", 1, true, "me.png").Return(nil,
		errors.Wrap(errors.ErrProcessing, "Could not process image", io.ErrUnexpectedEOF))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, avatarRequest(t, "me.png"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Could not process image"}`, w.Body.String())
}
