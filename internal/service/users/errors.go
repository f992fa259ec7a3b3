package users

import "errors"

var (
	ErrUserExists     = errors.New("user already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidAccount = errors.New("invalid account id")
)
