// Package token 提供了会话令牌 (JWT) 的签发和校验。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSessionToken 表示会话令牌签名错误、已过期或缺少会话 ID。
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionManager 负责签发和校验会话令牌。
// 会话令牌只用于隔离对话上下文，不代表用户身份认证。
type SessionManager struct {
	secretKey []byte
	expireDur time.Duration
}

// SessionClaims 是会话令牌中携带的数据。
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	User      string `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// NewSessionManager 创建一个新的 SessionManager 实例。
func NewSessionManager(secret string, expireHours int) *SessionManager {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &SessionManager{
		secretKey: []byte(secret),
		expireDur: time.Hour * time.Duration(expireHours),
	}
}

// Issue 为新会话生成 ID 并签发令牌。
func (m *SessionManager) Issue(user string) (sessionID, signed string, expiresAt time.Time, err error) {
	sessionID = uuid.NewString()
	now := time.Now()
	expiresAt = now.Add(m.expireDur)
	claims := SessionClaims{
		SessionID: sessionID,
		User:      user,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   sessionID,
		},
	}
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	return sessionID, signed, expiresAt, err
}

// Verify 校验令牌并返回其中的 claims。
func (m *SessionManager) Verify(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSessionToken, err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
