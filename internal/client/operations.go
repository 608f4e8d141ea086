package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Default request parameters, applied when a caller passes a non-positive
// value. k and per_cluster are requests to the remote algorithm, not
// guarantees: the response may carry fewer clusters or representatives.
const (
	DefaultBookLimit  = 200
	DefaultNoteLimit  = 20
	DefaultSearchK    = 10
	DefaultClusterK   = 3
	DefaultPerCluster = 2
)

// ListBooks returns books ordered by the service.
func (c *Client) ListBooks(ctx context.Context, limit, offset int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultBookLimit
	}
	if offset < 0 {
		offset = 0
	}
	var books []models.Book
	if err := c.getJSON(ctx, "/books", pageQuery(limit, offset), &books); err != nil {
		return nil, err
	}
	return books, nil
}

// CreateBook creates a book. Trimming is the caller's responsibility; an
// empty title is rejected here without issuing a request.
func (c *Client) CreateBook(ctx context.Context, title string, author *string) (*models.Book, error) {
	if title == "" {
		return nil, errors.New("client: book title must not be empty")
	}
	body := map[string]any{"title": title}
	if author != nil {
		body["author"] = *author
	}
	var book models.Book
	if err := c.postJSON(ctx, "/books", body, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// ListNotes returns notes ordered by the service.
func (c *Client) ListNotes(ctx context.Context, limit, offset int) ([]models.Note, error) {
	if limit <= 0 {
		limit = DefaultNoteLimit
	}
	if offset < 0 {
		offset = 0
	}
	var notes []models.Note
	if err := c.getJSON(ctx, "/notes", pageQuery(limit, offset), &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote creates a note, optionally attached to a book. A nil bookID
// leaves the field out of the body entirely, it is never sent as null.
func (c *Client) CreateNote(ctx context.Context, text string, bookID *int64) (*models.Note, error) {
	if text == "" {
		return nil, errors.New("client: note text must not be empty")
	}
	body := map[string]any{"text": text}
	if bookID != nil {
		body["book_id"] = *bookID
	}
	var note models.Note
	if err := c.postJSON(ctx, "/notes", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// SearchNotes runs a semantic search for q, returning at most k hits,
// pre-sorted by the service by descending score. The order is preserved as
// received. A non-nil bookID scopes the search to notes attached to that
// book and is omitted from the query otherwise.
func (c *Client) SearchNotes(ctx context.Context, q string, k int, bookID *int64) ([]models.NoteSearchHit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, errors.New("client: search query must not be empty")
	}
	if k <= 0 {
		k = DefaultSearchK
	}
	query := url.Values{}
	query.Set("q", q)
	query.Set("k", strconv.Itoa(k))
	if bookID != nil {
		query.Set("book_id", strconv.FormatInt(*bookID, 10))
	}
	var hits []models.NoteSearchHit
	if err := c.getJSON(ctx, "/search/notes", query, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// RecomputeClusters asks the service to regroup notes into at most k
// themes with at most perCluster representatives each. Same optional-
// omission rule for bookID as SearchNotes.
func (c *Client) RecomputeClusters(ctx context.Context, k, perCluster int, bookID *int64) ([]models.ClusterOut, error) {
	if k <= 0 {
		k = DefaultClusterK
	}
	if perCluster <= 0 {
		perCluster = DefaultPerCluster
	}
	query := url.Values{}
	query.Set("k", strconv.Itoa(k))
	query.Set("per_cluster", strconv.Itoa(perCluster))
	if bookID != nil {
		query.Set("book_id", strconv.FormatInt(*bookID, 10))
	}
	var clusters []models.ClusterOut
	if err := c.getJSON(ctx, "/clusters/recompute", query, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}
