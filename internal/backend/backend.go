// Package backend holds the collaborators the editor loads pipeline documents
// from and saves them to.
package backend

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("pipeline not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidUUID      = errors.New("invalid pipeline uuid")
)

func checkUUID(pipelineUUID string) error {
	if pipelineUUID == "" || pipelineUUID == "." || pipelineUUID == ".." ||
		strings.ContainsAny(pipelineUUID, `/\`) {
		return errors.Wrapf(ErrInvalidUUID, "%q", pipelineUUID)
	}

	return nil
}
