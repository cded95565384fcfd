package service

import "errors"

var (
	ErrNotFound       = errors.New("error not found")
	ErrForbidden      = errors.New("error transaction belongs to another user")
	ErrInvalidInput   = errors.New("error invalid input")
	ErrEmptyPortfolio = errors.New("error portfolio has no transactions")
)
