// Package view implements the client-side orchestration state: the mutable
// local copy of books and notes, ephemeral search and cluster results, form
// inputs, and the transitions that keep them consistent across remote calls.
package view

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/client"
	"github.com/starford/ansuz/internal/models"
)

// Service is the slice of the resource client the orchestrator depends on.
type Service interface {
	ListBooks(ctx context.Context, limit, offset int) ([]models.Book, error)
	CreateBook(ctx context.Context, title string, author *string) (*models.Book, error)
	ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error)
	CreateNote(ctx context.Context, text string, bookID *int64) (*models.Note, error)
	SearchNotes(ctx context.Context, q string, k int, bookID *int64) ([]models.NoteSearchHit, error)
	RecomputeClusters(ctx context.Context, k, perCluster int, bookID *int64) ([]models.ClusterOut, error)
}

// Snapshotter persists the last successfully fetched books/notes pair so a
// later session can start from the last-known view.
type Snapshotter interface {
	Save(books []models.Book, notes []models.Note) error
	Load() ([]models.Book, []models.Note, error)
}

// BookForm holds the pending create-book inputs.
type BookForm struct {
	Title  string
	Author string
}

// NoteForm holds the pending create-note inputs.
type NoteForm struct {
	Text   string
	BookID *int64
}

// Status is the connectivity indicator. It reflects only RefreshAll
// outcomes; failures of other actions never touch it.
type Status struct {
	Connected bool
	Err       string
}

// State is one observable snapshot of the orchestrator.
type State struct {
	Books      []models.Book
	Notes      []models.Note
	SearchHits []models.NoteSearchHit
	Clusters   []models.ClusterOut
	BookForm   BookForm
	NoteForm   NoteForm
	Searching  bool
	Clustering bool
	Status     Status
}

// View is a single-writer state container. Network calls overlap in
// flight, but every state mutation happens under the mutex, and each
// transition has a well-defined pre/post state.
type View struct {
	mu        sync.Mutex
	svc       Service
	snap      Snapshotter
	logger    *slog.Logger
	bookLimit int
	noteLimit int

	state      State
	booksByID  map[int64]models.Book
	searchSeq  uint64
	clusterSeq uint64
}

// Option is a functional option for configuring the view.
type Option func(*View)

// WithLogger sets the logger used for background warnings.
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		v.logger = l
	}
}

// WithSnapshot attaches a snapshot store, persisted after every
// successful refresh.
func WithSnapshot(s Snapshotter) Option {
	return func(v *View) {
		v.snap = s
	}
}

// WithListLimits overrides the page sizes used by RefreshAll.
func WithListLimits(books, notes int) Option {
	return func(v *View) {
		if books > 0 {
			v.bookLimit = books
		}
		if notes > 0 {
			v.noteLimit = notes
		}
	}
}

// New creates an orchestrator over the given service.
func New(svc Service, opts ...Option) *View {
	v := &View{
		svc:       svc,
		logger:    slog.Default(),
		bookLimit: client.DefaultBookLimit,
		noteLimit: client.DefaultNoteLimit,
		booksByID: map[int64]models.Book{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Snapshot returns a copy of the current state. The slices are cloned so
// callers can iterate without holding any lock.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Books = slices.Clone(s.Books)
	s.Notes = slices.Clone(s.Notes)
	s.SearchHits = slices.Clone(s.SearchHits)
	s.Clusters = slices.Clone(s.Clusters)
	return s
}

// RestoreSnapshot preloads books and notes from the snapshot store, when
// one is attached. The connectivity status is left untouched: restored
// data is last-known, not proof of a live service.
func (v *View) RestoreSnapshot() error {
	if v.snap == nil {
		return nil
	}
	books, notes, err := v.snap.Load()
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applyLists(books, notes)
	return nil
}

// RefreshAll fetches books and notes concurrently and replaces both lists
// atomically. Either fetch failing aborts the joint operation: no partial
// update is applied, the existing lists stay untouched, and the failure is
// recorded in the status. On success the prior error status is cleared.
func (v *View) RefreshAll(ctx context.Context) error {
	var (
		books []models.Book
		notes []models.Note
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := v.svc.ListBooks(gctx, v.bookLimit, 0)
		books = b
		return err
	})
	g.Go(func() error {
		n, err := v.svc.ListNotes(gctx, v.noteLimit, 0)
		notes = n
		return err
	})
	if err := g.Wait(); err != nil {
		v.mu.Lock()
		v.state.Status = Status{Connected: false, Err: err.Error()}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	v.applyLists(books, notes)
	v.state.Status = Status{Connected: true}
	v.mu.Unlock()

	if v.snap != nil {
		if err := v.snap.Save(books, notes); err != nil {
			v.logger.Warn("view: snapshot save failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// applyLists replaces both lists wholesale and rebuilds the book lookup.
// Callers must hold the mutex.
func (v *View) applyLists(books []models.Book, notes []models.Note) {
	v.state.Books = books
	v.state.Notes = notes
	v.booksByID = make(map[int64]models.Book, len(books))
	for _, b := range books {
		v.booksByID[b.ID] = b
	}
}

// SubmitBook records the book form and creates the book. A whitespace-only
// title is a no-op: no request is issued and nothing changes beyond the
// form fields themselves. On success the form is cleared and both lists
// refreshed; on failure the form is preserved so input is not lost.
func (v *View) SubmitBook(ctx context.Context, title, author string) error {
	v.mu.Lock()
	v.state.BookForm = BookForm{Title: title, Author: author}
	v.mu.Unlock()

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil
	}
	var authorPtr *string
	if a := strings.TrimSpace(author); a != "" {
		authorPtr = &a
	}
	if _, err := v.svc.CreateBook(ctx, trimmed, authorPtr); err != nil {
		return err
	}

	v.mu.Lock()
	v.state.BookForm = BookForm{}
	v.mu.Unlock()
	return v.RefreshAll(ctx)
}

// SubmitNote follows the same no-op and error-preservation pattern as
// SubmitBook, scoped to the note form.
func (v *View) SubmitNote(ctx context.Context, text string, bookID *int64) error {
	v.mu.Lock()
	v.state.NoteForm = NoteForm{Text: text, BookID: bookID}
	v.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if _, err := v.svc.CreateNote(ctx, trimmed, bookID); err != nil {
		return err
	}

	v.mu.Lock()
	v.state.NoteForm = NoteForm{}
	v.mu.Unlock()
	return v.RefreshAll(ctx)
}

// RunSearch issues a semantic search and replaces the hits wholesale on
// success. A whitespace-only query is a no-op. Invocations carry a
// monotonically increasing sequence number; a response that is no longer
// the latest issued is discarded, so overlapping searches cannot let an
// older response overwrite a newer one. On failure the prior hits are
// left untouched.
func (v *View) RunSearch(ctx context.Context, query string, k int, bookID *int64) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	v.mu.Lock()
	v.searchSeq++
	seq := v.searchSeq
	v.state.Searching = true
	v.mu.Unlock()

	hits, err := v.svc.SearchNotes(ctx, trimmed, k, bookID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq == v.searchSeq {
		v.state.Searching = false
	}
	if err != nil {
		return err
	}
	if seq != v.searchSeq {
		return nil
	}
	v.state.SearchHits = hits
	return nil
}

// RunClusterRecompute follows the same busy-flag, replace-on-success, and
// stale-response discipline as RunSearch, using the clustering flag and
// its own sequence.
func (v *View) RunClusterRecompute(ctx context.Context, k, perCluster int, bookID *int64) error {
	v.mu.Lock()
	v.clusterSeq++
	seq := v.clusterSeq
	v.state.Clustering = true
	v.mu.Unlock()

	clusters, err := v.svc.RecomputeClusters(ctx, k, perCluster, bookID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq == v.clusterSeq {
		v.state.Clustering = false
	}
	if err != nil {
		return err
	}
	if seq != v.clusterSeq {
		return nil
	}
	v.state.Clusters = clusters
	return nil
}

// BookTitle resolves a note's book reference against the current book set.
// A nil or unresolved reference reports ok=false, meaning "no book": book
// ids are only guaranteed resolvable at the time of the request that
// produced them, and a stale join is display-level absence, never an
// error.
func (v *View) BookTitle(bookID *int64) (title string, ok bool) {
	if bookID == nil {
		return "", false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.booksByID[*bookID]
	if !ok {
		return "", false
	}
	return b.Title, true
}
