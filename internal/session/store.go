// Package session keeps live workflow controllers for concurrent users.
//
// A controller is single-threaded; the [Store] is the only shared structure.
// It guards its session map with a read-write lock and serializes work on one
// session with a per-session mutex, so HTTP requests for the same session never
// touch its controller at the same time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"recruitflow/internal/catalog"
	"recruitflow/internal/document"
	"recruitflow/internal/workflow"
)

// ErrSessionNotFound is returned for an unknown or deleted session id.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotComplete is returned by [Store.Submit] for a session whose workflow
// has not reached Complete.
var ErrNotComplete = errors.New("workflow is not complete")

// Submitter receives the final document when a session's workflow reaches
// Complete. It is called at most once per controller.
type Submitter interface {
	Submit(ctx context.Context, workflowName string, doc document.Document) error
}

// SubmitterFunc adapts a function to [Submitter].
type SubmitterFunc func(ctx context.Context, workflowName string, doc document.Document) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, workflowName string, doc document.Document) error {
	return f(ctx, workflowName, doc)
}

// Session is one user's run through a workflow.
type Session struct {
	ID        string
	Workflow  string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Redirect is the last URL a branch handler sent the user to.
	Redirect string

	// Submitted is set once the final document was handed to the submitter.
	Submitted bool

	mu        sync.Mutex
	ctrl      *workflow.Controller
	confirmed bool
}

// View is a consistent snapshot of a session.
type View struct {
	ID        string            `json:"id"`
	Workflow  string            `json:"workflow"`
	Position  workflow.Position `json:"position"`
	Step      *StepRef          `json:"step,omitempty"`
	CanSkip   bool              `json:"can_skip"`
	Progress  workflow.Progress `json:"progress"`
	Summary   workflow.Summary  `json:"summary"`
	Document  map[string]any    `json:"document"`
	Redirect  string            `json:"redirect,omitempty"`
	Submitted bool              `json:"submitted"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// StepRef identifies the current step.
type StepRef struct {
	Phase string `json:"phase"`
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (s *Session) view() View {
	v := View{
		ID:        s.ID,
		Workflow:  s.Workflow,
		Position:  s.ctrl.Position(),
		CanSkip:   s.ctrl.CanSkip(),
		Progress:  s.ctrl.Progress(),
		Summary:   s.ctrl.Summary(),
		Document:  s.ctrl.Document().Snapshot(),
		Redirect:  s.Redirect,
		Submitted: s.Submitted,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if step, ok := s.ctrl.Current(); ok {
		phase, _ := s.ctrl.CurrentPhase()
		v.Step = &StepRef{Phase: phase.ID, ID: step.ID, Label: step.Label}
	}
	return v
}

// DoOption adjusts a single [Store.Do] call.
type DoOption func(*Session)

// Confirmed answers "yes" to any confirmation a branch handler asks for
// during the call. Without it confirmations are declined.
func Confirmed(yes bool) DoOption {
	return func(s *Session) {
		s.confirmed = yes
	}
}

// Store holds sessions in memory.
type Store struct {
	registry   *catalog.Registry
	declineURL string
	submitter  Submitter
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a [Store].
type Option func(*Store)

// WithSubmitter sets the collaborator that receives completed documents.
func WithSubmitter(s Submitter) Option {
	return func(st *Store) {
		st.submitter = s
	}
}

// WithDeclineURL sets where declining candidates are redirected.
func WithDeclineURL(url string) Option {
	return func(st *Store) {
		st.declineURL = url
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(st *Store) {
		if logger != nil {
			st.logger = logger
		}
	}
}

// NewStore creates an empty store creating controllers from registry.
func NewStore(registry *catalog.Registry, opts ...Option) *Store {
	st := &Store{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// hooks binds branch handlers to s. They run inside Do, with s.mu held.
func (st *Store) hooks(s *Session) catalog.Hooks {
	return catalog.Hooks{
		DeclineURL: st.declineURL,
		Redirect: func(url string) error {
			s.Redirect = url
			return nil
		},
		Confirm: func(string) bool {
			return s.confirmed
		},
	}
}

// Create starts a new session for the named workflow.
func (st *Store) Create(workflowName string) (View, error) {
	now := st.now()
	s := &Session{
		ID:        uuid.New().String(),
		Workflow:  workflowName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctrl, err := st.registry.NewController(workflowName, st.hooks(s))
	if err != nil {
		return View{}, err
	}
	s.ctrl = ctrl

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Info("session created", "session", s.ID, "workflow", workflowName)
	return s.view(), nil
}

func (st *Store) get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Get returns a snapshot of the session.
func (st *Store) Get(id string) (View, error) {
	s, err := st.get(id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// List returns snapshots of all sessions ordered by creation time.
func (st *Store) List() []View {
	st.mu.RLock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()

	views := make([]View, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		views = append(views, s.view())
		s.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

// Delete removes the session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(st.sessions, id)
	st.logger.Info("session deleted", "session", id)
	return nil
}

// Reset replaces the session's controller with a fresh one at the initial
// position with default sections.
func (st *Store) Reset(id string) (View, error) {
	s, err := st.get(id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctrl, err := st.registry.NewController(s.Workflow, st.hooks(s))
	if err != nil {
		return View{}, err
	}
	s.ctrl = ctrl
	s.Redirect = ""
	s.Submitted = false
	s.UpdatedAt = st.now()

	st.logger.Info("session reset", "session", id)
	return s.view(), nil
}

// Do runs fn against the session's controller while holding the session
// lock, and returns a snapshot taken under the same lock.
//
// When fn moves the controller to Complete, the submitter is invoked once
// with the final document. A submission failure is returned wrapped but does
// not change the position; the next Do call retries it.
func (st *Store) Do(ctx context.Context, id string, fn func(*workflow.Controller) error, opts ...DoOption) (View, error) {
	s, err := st.get(id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmed = false
	for _, opt := range opts {
		opt(s)
	}
	defer func() { s.confirmed = false }()

	fnErr := fn(s.ctrl)
	s.UpdatedAt = st.now()

	if s.ctrl.IsComplete() && !s.Submitted && st.submitter != nil {
		if err := st.submitter.Submit(ctx, s.Workflow, s.ctrl.Document()); err != nil {
			st.logger.Error("submission failed", "session", id, "workflow", s.Workflow, "error", err)
			return s.view(), errors.Join(fnErr, fmt.Errorf("submit %s: %w", s.Workflow, err))
		}
		s.Submitted = true
		st.logger.Info("session submitted", "session", id, "workflow", s.Workflow)
	}

	return s.view(), fnErr
}

// Submit hands a completed session's document to the submitter. It retries a
// submission that failed earlier and does nothing once the document was
// submitted.
func (st *Store) Submit(ctx context.Context, id string) (View, error) {
	return st.Do(ctx, id, func(c *workflow.Controller) error {
		if !c.IsComplete() {
			return ErrNotComplete
		}
		return nil
	})
}
