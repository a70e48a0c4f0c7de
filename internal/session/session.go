package session

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"catblog-backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

var (
	ErrEmptyToken = errors.New("令牌为空")
	ErrRevoked    = errors.New("令牌已被撤销")
)

type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager 签发和校验会话令牌，并维护注销黑名单
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool

	blacklist map[string]time.Time
	mu        sync.RWMutex
}

func NewManager(secret string, ttl time.Duration, cookieName string, secure bool) *Manager {
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		secure:     secure,
		blacklist:  make(map[string]time.Time),
	}
}

func (m *Manager) Issue(userID int) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, errors.New("无效的用户ID")
	}
	if m.isRevoked(claims.ID) {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke 令牌在过期之前一直留在黑名单中
func (m *Manager) Revoke(tokenString string) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, expiry := range m.blacklist {
		if now.After(expiry) {
			delete(m.blacklist, id)
		}
	}
	m.blacklist[claims.ID] = claims.ExpiresAt.Time
	util.Logger.Info("用户注销，令牌已加入黑名单", zap.Int("user_id", claims.UserID))
}

func (m *Manager) isRevoked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	expiry, exists := m.blacklist[id]
	return exists && time.Now().Before(expiry)
}

// TokenFromRequest 优先读取 Authorization 头，其次读取会话 cookie
func (m *Manager) TokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	return token
}

func (m *Manager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
}

func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

// SetCurrentUserID 由会话中间件调用
func SetCurrentUserID(c *gin.Context, userID int) {
	c.Set(userIDKey, userID)
}

// CurrentUserID 返回当前登录用户的ID，匿名访问时为 0
func CurrentUserID(c *gin.Context) int {
	return c.GetInt(userIDKey)
}
