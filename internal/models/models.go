// Package models defines the domain types exchanged with the Reading Notes service.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Book mirrors a server-owned book record. The client holds a read-only
// cached copy and never mutates or deletes it.
type Book struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Author    *string `json:"author"`
	CreatedAt string  `json:"created_at"`
}

// Validate checks that a decoded Book carries its required fields.
// Unknown extra fields are ignored by the JSON decoder; a missing
// required field is a decode failure.
func (b Book) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Title, validation.Required),
	)
}

// Note mirrors a server-owned note record. BookID is nil for unattached
// notes, which is a valid state.
type Note struct {
	ID        int64  `json:"id"`
	BookID    *int64 `json:"book_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// Validate checks that a decoded Note carries its required fields.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Text, validation.Required),
	)
}

// NoteSearchHit pairs a note with its relevance score. Hits are ephemeral:
// produced fresh per search call and superseded entirely by the next one.
// Higher score is more relevant; no fixed bound is guaranteed, and the
// client never re-sorts what the service returned.
type NoteSearchHit struct {
	Note  Note    `json:"note"`
	Score float64 `json:"score"`
}

// Validate checks the embedded note of a decoded hit.
func (h NoteSearchHit) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Note),
	)
}

// Representative is one central note of a cluster with its centrality score.
type Representative struct {
	Note  Note    `json:"note"`
	Score float64 `json:"score"`
}

// Validate checks the embedded note of a decoded representative.
func (r Representative) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Note),
	)
}

// ClusterOut is one thematic group from a clustering recompute. ClusterID
// is unique within a single response only and not stable across
// recomputations. Size need not match the number of representatives, and
// cluster sizes need not sum to the total note count.
type ClusterOut struct {
	ClusterID       int64            `json:"cluster_id"`
	Size            int              `json:"size"`
	Keywords        []string         `json:"keywords"`
	Representatives []Representative `json:"representatives"`
}

// Validate checks the representatives of a decoded cluster. ClusterID is
// not required: zero is a legitimate cluster label.
func (c ClusterOut) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Representatives),
	)
}
