// Package testutil provides shared test helpers, chiefly an in-memory fake
// of the Reading Notes service for exercising the client and orchestrator
// against real HTTP.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/models"
)

// FakeRemote is an in-memory stand-in for the Reading Notes service. It
// implements the CRUD endpoints with real state and serves canned results
// for search and clustering, since those algorithms live entirely on the
// real service.
type FakeRemote struct {
	mu       sync.Mutex
	books    []models.Book
	notes    []models.Note
	hits     []models.NoteSearchHit
	clusters []models.ClusterOut

	nextBookID int64
	nextNoteID int64

	failStatus int
	failBody   string

	lastAuth  string
	lastQuery url.Values
}

// NewFakeRemote creates an empty fake service.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{nextBookID: 1, nextNoteID: 1}
}

// Router returns the HTTP surface of the fake service.
func (f *FakeRemote) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.intercept)
	r.Get("/books", f.listBooks)
	r.Post("/books", f.createBook)
	r.Get("/notes", f.listNotes)
	r.Post("/notes", f.createNote)
	r.Get("/search/notes", f.searchNotes)
	r.Get("/clusters/recompute", f.recomputeClusters)
	return r
}

// Server starts an httptest server over the fake, closed on test cleanup.
func (f *FakeRemote) Server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.Router())
	t.Cleanup(srv.Close)
	return srv
}

// intercept records the auth header and query of every request and, when a
// forced failure is armed, short-circuits with it.
func (f *FakeRemote) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.lastQuery = r.URL.Query()
		status, body := f.failStatus, f.failBody
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailWith arms a forced failure: every subsequent request gets this
// status and body until ClearFail.
func (f *FakeRemote) FailWith(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus, f.failBody = status, body
}

// ClearFail disarms a forced failure.
func (f *FakeRemote) ClearFail() {
	f.FailWith(0, "")
}

// LastAuth returns the Authorization header of the most recent request.
func (f *FakeRemote) LastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

// LastQuery returns the query values of the most recent request.
func (f *FakeRemote) LastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// AddBook seeds a book directly, bypassing HTTP.
func (f *FakeRemote) AddBook(title string, author *string) models.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addBookLocked(title, author)
}

func (f *FakeRemote) addBookLocked(title string, author *string) models.Book {
	b := models.Book{
		ID:        f.nextBookID,
		Title:     title,
		Author:    author,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	f.nextBookID++
	f.books = append(f.books, b)
	return b
}

// AddNote seeds a note directly, bypassing HTTP.
func (f *FakeRemote) AddNote(text string, bookID *int64) models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addNoteLocked(text, bookID)
}

func (f *FakeRemote) addNoteLocked(text string, bookID *int64) models.Note {
	n := models.Note{
		ID:        f.nextNoteID,
		BookID:    bookID,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	f.nextNoteID++
	f.notes = append(f.notes, n)
	return n
}

// SetHits sets the canned search response.
func (f *FakeRemote) SetHits(hits []models.NoteSearchHit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = hits
}

// SetClusters sets the canned clustering response.
func (f *FakeRemote) SetClusters(clusters []models.ClusterOut) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clusters = clusters
}

func (f *FakeRemote) listBooks(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 200)
	f.mu.Lock()
	page := slicePage(f.books, limit, offset)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (f *FakeRemote) createBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title  string  `json:"title"`
		Author *string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title must not be empty", http.StatusUnprocessableEntity)
		return
	}
	f.mu.Lock()
	b := f.addBookLocked(req.Title, req.Author)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, b)
}

func (f *FakeRemote) listNotes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 50)
	f.mu.Lock()
	page := slicePage(f.notes, limit, offset)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (f *FakeRemote) createNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		BookID *int64 `json:"book_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text must not be empty", http.StatusUnprocessableEntity)
		return
	}
	f.mu.Lock()
	if req.BookID != nil && !f.hasBookLocked(*req.BookID) {
		f.mu.Unlock()
		http.Error(w, fmt.Sprintf("book %d not found", *req.BookID), http.StatusUnprocessableEntity)
		return
	}
	n := f.addNoteLocked(req.Text, req.BookID)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, n)
}

func (f *FakeRemote) searchNotes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("q") == "" {
		http.Error(w, "query parameter 'q' is required", http.StatusUnprocessableEntity)
		return
	}
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	if k <= 0 {
		k = 10
	}
	f.mu.Lock()
	hits := slicePage(f.hits, k, 0)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, hits)
}

func (f *FakeRemote) recomputeClusters(w http.ResponseWriter, r *http.Request) {
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	if k <= 0 {
		k = 3
	}
	perCluster, _ := strconv.Atoi(r.URL.Query().Get("per_cluster"))
	if perCluster <= 0 {
		perCluster = 2
	}
	f.mu.Lock()
	clusters := slicePage(f.clusters, k, 0)
	for i := range clusters {
		clusters[i].Representatives = slicePage(clusters[i].Representatives, perCluster, 0)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, clusters)
}

func (f *FakeRemote) hasBookLocked(id int64) bool {
	for _, b := range f.books {
		if b.ID == id {
			return true
		}
	}
	return false
}

func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func slicePage[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
