// Package submit sequences an export: assemble, submit, await, resolve.
//
// A Controller owns the single in-flight submission slot. Prepare runs on the
// caller's goroutine and reads the selection; Execute performs the network
// call and may run anywhere. Edits made to the selection after Prepare never
// reach the request already in flight.
package submit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dupexport/internal/domain"
	"dupexport/internal/eventbus"
	"dupexport/internal/export"
	"dupexport/internal/logging"
)

// ErrAlreadyInProgress is returned when a submission is attempted while the
// controller is not idle.
var ErrAlreadyInProgress = errors.New("an export is already in progress")

// State is the submission lifecycle state
type State int

const (
	Idle State = iota
	Assembling
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Assembling:
		return "assembling"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Exporter sends an encoded export request and returns the artifact
type Exporter interface {
	Export(ctx context.Context, payload []byte, fallbackName string) (domain.Artifact, error)
}

// Input is what the operator typed next to the selection
type Input struct {
	RepositoryID string
	Name         string
	Prefix       string
}

// Pending is an assembled request waiting to be sent
type Pending struct {
	Request  domain.ExportRequest
	Payload  []byte
	Filename string
}

// Result is a finished export
type Result struct {
	Request  domain.ExportRequest
	Artifact domain.Artifact
}

// Controller drives submissions one at a time
type Controller struct {
	exporter Exporter
	bus      eventbus.EventBus

	mu      sync.Mutex
	state   State
	result  Result
	lastErr error
}

// NewController creates an idle controller
func NewController(exporter Exporter, bus eventbus.EventBus) *Controller {
	return &Controller{
		exporter: exporter,
		bus:      eventbus.OrNull(bus),
	}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error of the last failed submission
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Busy reports whether a submission occupies the slot
func (c *Controller) Busy() bool {
	s := c.State()
	return s == Assembling || s == Submitting
}

// Submit prepares and executes a submission on the calling goroutine
func (c *Controller) Submit(ctx context.Context, in Input, sel export.Selection) (Result, error) {
	p, err := c.Prepare(in, sel)
	if err != nil {
		return Result{}, err
	}
	return c.Execute(ctx, p)
}

// Prepare claims the submission slot, validates and serializes the request.
// A validation failure releases the slot and returns the ValidationError.
func (c *Controller) Prepare(in Input, sel export.Selection) (Pending, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return Pending{}, ErrAlreadyInProgress
	}
	c.transition(Assembling)
	c.mu.Unlock()

	req, err := export.Build(in.RepositoryID, in.Name, in.Prefix, sel)
	if err == nil {
		var payload []byte
		payload, err = export.Encode(req)
		if err == nil {
			c.mu.Lock()
			c.transition(Submitting)
			c.mu.Unlock()
			return Pending{
				Request:  req,
				Payload:  payload,
				Filename: export.ArtifactFilename(req.ExternalName),
			}, nil
		}
	}

	c.mu.Lock()
	c.transition(Idle)
	c.mu.Unlock()
	return Pending{}, err
}

// Execute sends a prepared request and resolves the submission. The
// controller then stays Succeeded or Failed until Acknowledge.
func (c *Controller) Execute(ctx context.Context, p Pending) (Result, error) {
	if c.State() != Submitting {
		return Result{}, fmt.Errorf("execute: controller is %s, not submitting", c.State())
	}

	logger := logging.WithFields(ctx, "repo_id", p.Request.RepositoryID, "name", p.Request.ExternalName)
	logger.Info("submitting export", "classes", len(p.Request.ClassSelections), "bytes", len(p.Payload))

	artifact, err := c.exporter.Export(ctx, p.Payload, p.Filename)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		c.result = Result{}
		c.transition(Failed)
	} else {
		c.lastErr = nil
		c.result = Result{Request: p.Request, Artifact: artifact}
		c.transition(Succeeded)
	}
	res := c.result
	c.mu.Unlock()

	c.bus.Publish(domain.ExportCompletedEvent{
		ExternalName: p.Request.ExternalName,
		Filename:     artifact.Filename,
		Bytes:        len(artifact.Data),
		Err:          err,
	})
	if err != nil {
		logger.Warn("export failed", "error", err)
		return Result{}, err
	}
	return res, nil
}

// Acknowledge returns a resolved controller to Idle. It does nothing while a
// submission is in flight.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Succeeded || c.state == Failed {
		c.transition(Idle)
	}
}

// transition must be called with mu held
func (c *Controller) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.bus.Publish(domain.SubmissionStateEvent{From: from.String(), To: to.String()})
}

// SaveArtifact writes the artifact into dir and returns the path written.
// An existing file is never overwritten; a numeric suffix is added instead.
func SaveArtifact(dir string, artifact domain.Artifact) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	name := filepath.Base(artifact.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "export.dup"
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(dir, candidate)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("save artifact: %w", err)
		}
		if _, err := f.Write(artifact.Data); err != nil {
			f.Close()
			return "", fmt.Errorf("save artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("save artifact: %w", err)
		}
		return target, nil
	}
}
