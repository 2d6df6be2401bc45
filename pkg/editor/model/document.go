package model

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is the serializable pipeline exchanged with the backend:
//
//	{"name": ..., "uuid": ..., "steps": {"<uuid>": {...}, ...}}
//
// Connections are not stored on their own; they live in each step's
// incoming_connections.
type Document struct {
	Name  string
	UUID  string
	Steps map[string]*Step

	// order is the wire order of the steps object keys.
	order []string
	raw   []byte
}

// Parse decodes a pipeline document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := doc.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	return doc, nil
}

// StepOrder lists the step keys in wire order. Keys added to Steps by hand
// come last, sorted.
func (d *Document) StepOrder() []string {
	seen := make(map[string]struct{}, len(d.Steps))
	keys := make([]string, 0, len(d.Steps))

	for _, k := range d.order {
		if _, ok := d.Steps[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	var rest []string
	for k := range d.Steps {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.Wrap(ErrInvalidJSON, "malformed document")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return errors.Wrap(ErrInvalidJSON, "document must be an object")
	}

	d.Name = root.Get("name").String()
	d.UUID = root.Get("uuid").String()
	d.Steps = make(map[string]*Step)
	d.order = nil
	d.raw = append([]byte(nil), data...)

	steps := root.Get("steps")
	if steps.Exists() && !steps.IsObject() {
		return errors.Wrap(ErrInvalidJSON, "steps must be an object")
	}

	var stepErr error
	steps.ForEach(func(key, value gjson.Result) bool {
		step := &Step{}
		if err := step.UnmarshalJSON([]byte(value.Raw)); err != nil {
			stepErr = errors.Wrapf(err, "step %s", key.String())
			return false
		}
		d.Steps[key.String()] = step
		d.order = append(d.order, key.String())

		return true
	})

	return stepErr
}

func (d *Document) MarshalJSON() ([]byte, error) {
	out := d.raw
	if len(out) == 0 {
		out = []byte("{}")
	}
	out = append([]byte(nil), out...)

	var err error
	out, err = sjson.SetBytes(out, "name", d.Name)
	if err != nil {
		return nil, errors.Wrap(err, "unable to write name")
	}
	out, err = sjson.SetBytes(out, "uuid", d.UUID)
	if err != nil {
		return nil, errors.Wrap(err, "unable to write uuid")
	}

	// The steps object is assembled by hand to keep key order.
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.StepOrder() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to encode step key %s", key)
		}
		v, err := d.Steps[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	out, err = sjson.SetRawBytes(out, "steps", buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "unable to write steps")
	}

	return out, nil
}
