package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/pipeline-editor/pkg/editor"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

// File keeps one <uuid>.json document per pipeline in a directory.
type File struct {
	dir string
}

// NewFile returns a backend rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Path is where the document of a pipeline lives.
func (b *File) Path(pipelineUUID string) string {
	return filepath.Join(b.dir, pipelineUUID+".json")
}

func (b *File) Load(ctx context.Context, pipelineUUID string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "load cancelled")
	}
	if err := checkUUID(pipelineUUID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.Path(pipelineUUID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "%s", pipelineUUID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read pipeline %s", pipelineUUID)
	}

	doc, err := model.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read pipeline %s", pipelineUUID)
	}

	return doc, nil
}

// Save replaces the document through a temporary file so that a reader never
// sees half of it.
func (b *File) Save(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "save cancelled")
	}
	if err := checkUUID(doc.UUID); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "unable to encode pipeline %s", doc.UUID)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return errors.Wrapf(err, "unable to indent pipeline %s", doc.UUID)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", b.dir)
	}
	tmp, err := os.CreateTemp(b.dir, "."+doc.UUID+"-*.json")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.Wrapf(err, "unable to write pipeline %s", doc.UUID)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "unable to write pipeline %s", doc.UUID)
	}

	return errors.Wrapf(os.Rename(tmp.Name(), b.Path(doc.UUID)), "unable to store pipeline %s", doc.UUID)
}

var _ editor.Backend = (*File)(nil)
