// Package upload drives a single image submit from the selected file to the prediction store.
package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/predict"
	"github.com/yildizm/DenseView/internal/selector"
	"github.com/yildizm/DenseView/internal/store"
)

// ErrStale is returned by Submit when a newer submit started before this one finished.
// The store is left to the newer submit.
var ErrStale = errors.New("response superseded by a newer submit")

// Predictor sends an image to the classification service
type Predictor interface {
	Predict(ctx context.Context, img predict.Image) (predict.Matrix, error)
}

// Ticket identifies one submit. Only the ticket with the latest Seq may update the store.
type Ticket struct {
	Seq       uint64
	RequestID string
	File      *selector.File
	Started   time.Time
}

// Result is the finished request for a ticket
type Result struct {
	Ticket     Ticket
	Prediction predict.Matrix
	Err        error
	Elapsed    time.Duration
}

// Controller owns the file selection and the request lifecycle
type Controller struct {
	selector *selector.Selector
	client   Predictor
	store    *store.Store
	logger   *logger.Logger

	mu    sync.Mutex
	seq   uint64
	newID func() string
	now   func() time.Time
}

// New creates a controller. A nil logger discards diagnostics.
func New(client Predictor, st *store.Store, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		selector: &selector.Selector{},
		client:   client,
		store:    st,
		logger:   log,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Selector returns the controller's file selector
func (c *Controller) Selector() *selector.Selector {
	return c.selector
}

// Store returns the prediction store the controller writes to
func (c *Controller) Store() *store.Store {
	return c.store
}

// SelectFile replaces the current selection
func (c *Controller) SelectFile(f *selector.File) {
	c.selector.Select(f)
	if f != nil {
		c.logger.DebugWithFields("File selected", []logger.Field{
			logger.F("file", f.Name),
			logger.F("mime", f.MIMEType),
			logger.F("bytes", f.Size()),
		})
	}
}

// Begin issues a ticket for the current file and marks the store as uploading.
// It returns false, touching nothing, when no file is selected.
func (c *Controller) Begin() (Ticket, bool) {
	file, ok := c.selector.Current()
	if !ok {
		c.logger.Debug("Submit ignored: no file selected")
		return Ticket{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	ticket := Ticket{
		Seq:       c.seq,
		RequestID: c.newID(),
		File:      file,
		Started:   c.now(),
	}
	c.store.SetOutcome(store.Outcome{
		State:     store.Uploading,
		RequestID: ticket.RequestID,
		Seq:       ticket.Seq,
	})

	c.logger.InfoWithFields("Uploading %s", []logger.Field{
		logger.F("request_id", ticket.RequestID),
		logger.F("seq", ticket.Seq),
		logger.F("bytes", file.Size()),
	}, file.Name)

	return ticket, true
}

// Run performs the request for t. It does not touch the store and is safe to call off the UI loop.
func (c *Controller) Run(ctx context.Context, t Ticket) Result {
	prediction, err := c.client.Predict(ctx, predict.Image{
		Name:        t.File.Name,
		ContentType: t.File.MIMEType,
		Data:        t.File.Data,
	})
	return Result{
		Ticket:     t,
		Prediction: prediction,
		Err:        err,
		Elapsed:    c.now().Sub(t.Started),
	}
}

// Complete applies r if it belongs to the latest ticket and reports whether it was applied.
// A failure logs exactly one error entry and leaves the stored prediction as it was.
func (c *Controller) Complete(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := []logger.Field{
		logger.F("request_id", r.Ticket.RequestID),
		logger.F("seq", r.Ticket.Seq),
		logger.Duration(r.Elapsed),
	}

	if r.Ticket.Seq != c.seq {
		c.logger.DebugWithFields("Discarding stale response (latest seq %d)", fields, c.seq)
		return false
	}

	outcome := outcomeFor(r)
	if r.Err != nil {
		fields = append(fields, logger.F("kind", string(outcome.Kind)), logger.Error(r.Err))
		c.logger.ErrorWithFields("Prediction request failed", fields)
		c.store.SetOutcome(outcome)
		return true
	}

	c.store.Set(r.Prediction)
	c.store.SetOutcome(outcome)
	c.logger.InfoWithFields("Prediction received", append(fields,
		logger.F("rows", r.Prediction.Rows()),
		logger.F("classes", r.Prediction.Columns()),
	))
	return true
}

// Submit runs Begin, Run and Complete in sequence. With no file selected it returns the zero
// Outcome and a nil error without sending anything. A discarded stale result yields the
// store's current outcome and ErrStale.
func (c *Controller) Submit(ctx context.Context) (store.Outcome, error) {
	ticket, ok := c.Begin()
	if !ok {
		return store.Outcome{}, nil
	}
	result := c.Run(ctx, ticket)
	if !c.Complete(result) {
		return c.store.Outcome(), ErrStale
	}
	return outcomeFor(result), result.Err
}

func outcomeFor(r Result) store.Outcome {
	o := store.Outcome{
		State:     store.Succeeded,
		RequestID: r.Ticket.RequestID,
		Seq:       r.Ticket.Seq,
	}
	if r.Err != nil {
		o.State = store.Failed
		o.Kind = predict.KindOf(r.Err)
		if o.Kind == "" {
			o.Kind = predict.KindNetwork
		}
		var ue *predict.UploadError
		if errors.As(r.Err, &ue) && ue.Message != "" {
			o.Message = ue.Message
		} else {
			o.Message = r.Err.Error()
		}
	}
	return o
}
