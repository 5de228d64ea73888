package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// 角色
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey      string        // 签名密钥，为空时关闭鉴权
	AccessTokenTTL time.Duration // 签发有效期
	Issuer         string        // 签发者
}

// DefaultJWTConfig 默认配置（未设置密钥，鉴权关闭）
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		AccessTokenTTL: 24 * time.Hour,
		Issuer:         "gbp-review-sync",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// GetJWTConfig 获取 JWT 配置
func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// AuthEnabled 是否启用鉴权
func AuthEnabled() bool {
	return jwtConfig.SecretKey != ""
}

// ==================== Claims 定义 ====================

// BusinessClaims 业主/管理员声明
type BusinessClaims struct {
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// ==================== Token 生成 ====================

// GenerateAccessToken 签发 token，供运维与测试使用
// 正式 token 由外部认证系统签发
func GenerateAccessToken(businessID, role string) (string, error) {
	now := time.Now()
	claims := &BusinessClaims{
		BusinessID: businessID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   businessID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// ==================== Token 解析 ====================

// ParseToken 解析 Token
func ParseToken(tokenString string) (*BusinessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &BusinessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*BusinessClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyBusinessID = "business_id"
	ContextKeyRole       = "role"
	ContextKeyClaims     = "claims"
)

// JWTAuth JWT 认证中间件，未配置密钥时直接放行
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AuthEnabled() {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "认证格式错误，应为 Bearer {token}")
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "Token 无效或已过期")
			return
		}

		// 注入身份信息到 Context
		c.Set(ContextKeyBusinessID, claims.BusinessID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// RequireOwner 路径参数中的商家必须与 token 一致，管理员不受限
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AuthEnabled() {
			c.Next()
			return
		}

		if GetRole(c) == RoleAdmin {
			c.Next()
			return
		}
		if GetRole(c) == RoleOwner && GetBusinessID(c) == c.Param(param) {
			c.Next()
			return
		}
		abortJSON(c, http.StatusForbidden, "无权访问该商家")
	}
}

// RequireRole 角色权限校验中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !AuthEnabled() {
			c.Next()
			return
		}

		role, exists := c.Get(ContextKeyRole)
		if !exists {
			abortJSON(c, http.StatusUnauthorized, "未获取到用户角色")
			return
		}

		userRole := role.(string)
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		abortJSON(c, http.StatusForbidden, "无权限访问")
	}
}

// ==================== 辅助函数 ====================

// GetBusinessID 从 Context 获取 token 中的商家 ID
func GetBusinessID(c *gin.Context) string {
	if id, exists := c.Get(ContextKeyBusinessID); exists {
		return id.(string)
	}
	return ""
}

// GetRole 从 Context 获取角色
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextKeyRole); exists {
		return role.(string)
	}
	return ""
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}
