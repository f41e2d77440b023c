package service

import "errors"

var (
	ErrValidation           = errors.New("email and password are required")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrEmailTaken           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
)
