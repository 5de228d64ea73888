package service

import "errors"

// ==================== 前置条件 ====================

var (
	ErrBusinessNotFound   = errors.New("business not found")
	ErrBusinessExists     = errors.New("business already exists")
	ErrBusinessInactive   = errors.New("business is inactive")
	ErrNotConnected       = errors.New("Google Account not connected")
	ErrNoLocationSelected = errors.New("Business not connected to a GMB location")
)

// ==================== 凭证 / 发现 ====================

var (
	// ErrCredentialInvalid refresh token 被拒绝，需要业主重新授权
	ErrCredentialInvalid = errors.New("google credential rejected, re-authorization required")

	ErrNoAccounts       = errors.New("No Google Business Profile accounts found.")
	ErrLocationNotFound = errors.New("location not found in any linked account")
)

// ==================== OAuth / 参数 ====================

var (
	ErrOAuthNotConfigured = errors.New("google oauth client is not configured")
	ErrInvalidState       = errors.New("oauth state expired or invalid")
	ErrNoRefreshToken     = errors.New("google did not return a refresh token")
	ErrInvalidRule        = errors.New("invalid reply rule")
	ErrInvalidAction      = errors.New("Invalid action")
)
