package util

import (
	"errors"
	"learnhub_backend/internal/model"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserKey 认证中间件写入 Claims 的 gin 上下文键
const ContextUserKey = "user"

// 令牌签发方，解析时校验
const tokenIssuer = "learnhub"

var ErrTokenNoSubject = errors.New("token has no user id")

// Claims 只携带鉴权需要的字段，用户资料由身份服务维护
type Claims struct {
	UserID uint           `json:"user_id"`
	Role   model.UserRole `json:"role"`
	Email  string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateJWT 签发令牌；正式环境由身份服务签发，这里用于种子脚本和测试
func GenerateJWT(userID uint, role model.UserRole, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseJWT 只接受 HS256，且必须带过期时间
func ParseJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenNoSubject
	}
	return claims, nil
}

func SetUser(c *gin.Context, claims *Claims) {
	c.Set(ContextUserKey, claims)
}

// GetUserFromContext 未经过认证中间件时返回 nil
func GetUserFromContext(c *gin.Context) *Claims {
	claims, _ := c.Value(ContextUserKey).(*Claims)
	return claims
}
