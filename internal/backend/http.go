package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/askiada/pipeline-editor/pkg/editor"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

const pipelinePath = "/pipelines/{uuid}"

// HTTP talks to the pipeline service:
//
//	GET  {base}/pipelines/{uuid}  returns the document
//	POST {base}/pipelines/{uuid}  stores the document sent as the body
//
// Only loads are retried; a save is sent once.
type HTTP struct {
	client *resty.Client
	logger *zap.Logger
}

// HTTPOption configures an HTTP backend.
type HTTPOption func(b *HTTP)

// WithHTTPLogger sets the logger, also used by the underlying client.
func WithHTTPLogger(logger *zap.Logger) HTTPOption {
	return func(b *HTTP) {
		b.logger = logger
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(b *HTTP) {
		b.client.SetTimeout(d)
	}
}

// WithRetries sets how many times a failed load is retried.
func WithRetries(count int) HTTPOption {
	return func(b *HTTP) {
		b.client.SetRetryCount(count)
	}
}

// NewHTTP returns a backend for the service at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	b := &HTTP{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.client.SetLogger(b.logger.Sugar())

	return b
}

// Load fetches a pipeline document.
func (b *HTTP) Load(ctx context.Context, pipelineUUID string) (*model.Document, error) {
	if err := checkUUID(pipelineUUID); err != nil {
		return nil, err
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("uuid", pipelineUUID).
		Get(pipelinePath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to get pipeline %s", pipelineUUID)
	}
	if err := checkStatus(resp); err != nil {
		return nil, errors.Wrapf(err, "get pipeline %s", pipelineUUID)
	}

	b.logger.Debug("pipeline fetched",
		zap.String("pipeline", pipelineUUID),
		zap.Duration("elapsed", resp.Duration()),
	)

	doc, err := model.Parse(resp.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read pipeline %s", pipelineUUID)
	}

	return doc, nil
}

// Save posts a pipeline document.
func (b *HTTP) Save(ctx context.Context, doc *model.Document) error {
	if err := checkUUID(doc.UUID); err != nil {
		return err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "unable to encode pipeline %s", doc.UUID)
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("uuid", doc.UUID).
		SetContentType("application/json").
		SetBody(body).
		Post(pipelinePath)
	if err != nil {
		return errors.Wrapf(err, "unable to post pipeline %s", doc.UUID)
	}
	if err := checkStatus(resp); err != nil {
		return errors.Wrapf(err, "post pipeline %s", doc.UUID)
	}

	b.logger.Debug("pipeline posted",
		zap.String("pipeline", doc.UUID),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", resp.Duration()),
	)

	return nil
}

// Close releases the idle connections of the client.
func (b *HTTP) Close() error {
	return errors.Wrap(b.client.Close(), "unable to close http client")
}

func checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrNotFound
	case resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices:
		return errors.Wrapf(ErrUnexpectedStatus, "%s: %s", resp.Status(), resp.String())
	default:
		return nil
	}
}

var _ editor.Backend = (*HTTP)(nil)
