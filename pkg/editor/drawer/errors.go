package drawer

import "github.com/pkg/errors"

var (
	ErrInvalidColour = errors.New("invalid colour")
	ErrInvalidDOT    = errors.New("invalid dot graph")
)
