package model

import "github.com/pkg/errors"

var (
	ErrEmptyUUID      = errors.New("step uuid must be set")
	ErrDuplicateStep  = errors.New("step already exists")
	ErrStepNotFound   = errors.New("step not found")
	ErrSelfConnection = errors.New("a step cannot be connected to itself")
	ErrInvalidJSON    = errors.New("invalid pipeline json")
	ErrKeyMismatch    = errors.New("step key does not match its uuid")
)
