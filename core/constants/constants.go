package constants

import "time"

// Database connection pool settings.
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 10
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Request handling.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultTimeout        = 10 * time.Second
)

// Login throttling.
const (
	MaxLoginAttempts = 5
	BlockDuration    = 15 * time.Minute
)

// Redis key prefixes.
const (
	RedisKeyTokenBlacklist = "token:blacklist:"
	RedisKeyLoginAttempt   = "login:attempt:"
)

// Token scopes.
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Echo context keys.
const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"
)

// Asynq task types.
const (
	TaskNotificationDeliver = "notification:deliver"
)
