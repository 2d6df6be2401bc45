package editor

import "github.com/pkg/errors"

var (
	ErrNotLoaded = errors.New("no pipeline loaded")
	ErrClosed    = errors.New("editor closed")
)
