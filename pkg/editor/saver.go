package editor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/measure"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

type saveRequest struct {
	ctx context.Context
	doc *model.Document
}

// saver sends queued documents to the backend one at a time, in queue order.
type saver struct {
	backend  Backend
	logger   *zap.Logger
	observer Observer
	measure  measure.Measure

	mu      sync.Mutex
	queue   []saveRequest
	closing bool
	wake    chan struct{}
	done    chan struct{}
}

func newSaver(backend Backend, logger *zap.Logger, observer Observer, msr measure.Measure) *saver {
	s := &saver{
		backend:  backend,
		logger:   logger,
		observer: observer,
		measure:  msr,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.run()

	return s
}

func (s *saver) enqueue(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return ErrClosed
	}
	s.queue = append(s.queue, saveRequest{ctx: ctx, doc: doc})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return nil
}

// close stops accepting requests and waits until the queue is empty.
func (s *saver) close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closing = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

func (s *saver) next() (saveRequest, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return saveRequest{}, false, s.closing
	}
	req := s.queue[0]
	s.queue[0] = saveRequest{}
	s.queue = s.queue[1:]

	return req, true, false
}

func (s *saver) run() {
	defer close(s.done)

	for {
		req, ok, closing := s.next()
		if closing {
			return
		}
		if !ok {
			<-s.wake
			continue
		}
		s.send(req)
	}
}

func (s *saver) send(req saveRequest) {
	start := time.Now()
	err := s.backend.Save(req.ctx, req.doc)
	measure.Observe(s.measure, "save", start, err)

	if err != nil {
		err = errors.Wrapf(err, "unable to save pipeline %s", req.doc.UUID)
		s.logger.Error("save failed", zap.String("pipeline", req.doc.UUID), zap.Error(err))
	} else {
		s.logger.Info("pipeline saved",
			zap.String("pipeline", req.doc.UUID),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	s.observer.OnSaved(req.doc.UUID, err)
}
