package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProjectNotFound    = errors.New("project not found")
	ErrBoardNotFound      = errors.New("board not found")
	ErrListNotFound       = errors.New("list not found")
	ErrCardNotFound       = errors.New("card not found")
	ErrNotMember          = errors.New("user is not a project member")
	ErrForbidden          = errors.New("operation not permitted")
	ErrInvalidID          = errors.New("invalid identifier")
)
