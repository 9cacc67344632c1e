// Package session resolves queries end to end for one user: it owns the
// credential-bound answering client and the current dataset, routes each
// query and either renders a chart or asks the model.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/router"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated: provide an API key first")
	ErrNoDataset        = errors.New("no dataset loaded: upload a CSV or Excel file first")
	ErrEmptyQuery       = errors.New("query is empty")
)

// DatasetLoader parses an uploaded file of a declared type.
type DatasetLoader interface {
	Load(r io.Reader, name string, typ dataset.FileType) (*dataset.Dataset, error)
}

// ChartRenderer draws a chart spec over a dataset.
type ChartRenderer interface {
	Render(spec *router.ChartSpec, ds *dataset.Dataset, w io.Writer) error
}

// AnsweringService answers a free-text question about a dataset.
type AnsweringService interface {
	Answer(ctx context.Context, ds *dataset.Dataset, query string) (string, error)
}

// Authenticator builds an answering service bound to one credential.
// Session calls it at most once per distinct credential.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (AnsweringService, error)
}

// Options wires a Session's collaborators.
type Options struct {
	Loader        DatasetLoader
	Renderer      ChartRenderer
	Authenticator Authenticator
	// Now is the clock used for elapsed time; defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Outcome is the result of one query.
type Outcome struct {
	Query   string            `json:"query"`
	Intent  router.Intent     `json:"-"`
	Chart   *router.ChartSpec `json:"chart,omitempty"`
	Image   []byte            `json:"-"`
	Answer  string            `json:"answer,omitempty"`
	Elapsed time.Duration     `json:"-"`
}

// ElapsedMessage renders the elapsed time the way it is shown to users.
func (o *Outcome) ElapsedMessage() string {
	return fmt.Sprintf("Query processed in %.2f seconds.", o.Elapsed.Seconds())
}

// Session is one user's state. It starts unauthenticated and without a
// dataset; queries are resolved one at a time.
type Session struct {
	opt Options
	log *slog.Logger

	mu         sync.Mutex
	credential string
	answerer   AnsweringService
	ds         *dataset.Dataset
}

// New returns an empty Session.
func New(opt Options) *Session {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{opt: opt, log: log}
}

// Authenticate binds the session to credential. A credential equal to the
// current one keeps the existing client. On failure the session is left
// unauthenticated.
func (s *Session) Authenticate(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answerer != nil && credential == s.credential {
		return nil
	}
	s.answerer, s.credential = nil, ""
	if s.opt.Authenticator == nil {
		return errors.New("no authenticator configured")
	}
	svc, err := s.opt.Authenticator.Authenticate(ctx, credential)
	if err != nil {
		s.log.Warn("authentication failed", "error", err)
		return err
	}
	s.answerer, s.credential = svc, credential
	s.log.Debug("authenticated")
	return nil
}

// Authenticated reports whether a client is bound.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answerer != nil
}

// LoadDataset replaces the current dataset. On failure no dataset is kept.
func (s *Session) LoadDataset(r io.Reader, name string, typ dataset.FileType) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = nil
	if s.opt.Loader == nil {
		return nil, errors.New("no dataset loader configured")
	}
	ds, err := s.opt.Loader.Load(r, name, typ)
	if err != nil {
		return nil, err
	}
	s.ds = ds
	s.log.Info("dataset loaded", "name", name, "type", typ.String(), "rows", ds.NumRows(), "cols", len(ds.Columns()))
	return ds, nil
}

// Dataset returns the current dataset, or nil.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds
}

// Ask routes query and resolves it: chart intents are validated and
// rendered, General queries go to the answering service. An authentication
// failure from the service unbinds the client.
func (s *Session) Ask(ctx context.Context, query string) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return nil, ErrEmptyQuery
	case s.answerer == nil:
		return nil, ErrNotAuthenticated
	case s.ds == nil:
		return nil, ErrNoDataset
	}

	start := s.opt.Now()
	res := router.Route(query, s.ds.Columns())
	out := &Outcome{Query: query, Intent: res.Intent, Chart: res.Chart}
	s.log.Debug("query routed", "intent", res.Intent.String(), "delegate", res.Delegate)

	switch {
	case res.Err != nil:
		return nil, res.Err
	case res.Delegate:
		text, err := s.answerer.Answer(ctx, s.ds, query)
		if err != nil {
			if ai.IsAuth(err) {
				s.answerer, s.credential = nil, ""
			}
			return nil, err
		}
		out.Answer = text
	default:
		if s.opt.Renderer == nil {
			return nil, errors.New("no chart renderer configured")
		}
		var buf bytes.Buffer
		if err := s.opt.Renderer.Render(res.Chart, s.ds, &buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", res.Chart.Kind, err)
		}
		out.Image = buf.Bytes()
	}
	out.Elapsed = s.opt.Now().Sub(start)
	return out, nil
}
