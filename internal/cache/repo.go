package cache

import (
	"database/sql"
	"fmt"

	"github.com/starford/ansuz/internal/models"
)

// Save replaces the stored snapshot with the given lists in one
// transaction. The pos column preserves the service's ordering.
func (db *DB) Save(books []models.Book, notes []models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return fmt.Errorf("cache: clear books: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("cache: clear notes: %w", err)
	}

	bookStmt, err := tx.Prepare(`INSERT INTO books (id, title, author, created_at, pos) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache: prepare book insert: %w", err)
	}
	defer bookStmt.Close()
	for i, b := range books {
		var author sql.NullString
		if b.Author != nil {
			author = sql.NullString{String: *b.Author, Valid: true}
		}
		if _, err := bookStmt.Exec(b.ID, b.Title, author, b.CreatedAt, i); err != nil {
			return fmt.Errorf("cache: insert book: %w", err)
		}
	}

	noteStmt, err := tx.Prepare(`INSERT INTO notes (id, book_id, text, created_at, pos) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache: prepare note insert: %w", err)
	}
	defer noteStmt.Close()
	for i, n := range notes {
		var bookID sql.NullInt64
		if n.BookID != nil {
			bookID = sql.NullInt64{Int64: *n.BookID, Valid: true}
		}
		if _, err := noteStmt.Exec(n.ID, bookID, n.Text, n.CreatedAt, i); err != nil {
			return fmt.Errorf("cache: insert note: %w", err)
		}
	}

	return tx.Commit()
}

// Load returns the stored snapshot in its original order. An empty
// database yields empty lists, not an error.
func (db *DB) Load() ([]models.Book, []models.Note, error) {
	bookRows, err := db.conn.Query(`SELECT id, title, author, created_at FROM books ORDER BY pos`)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: query books: %w", err)
	}
	defer bookRows.Close()

	var books []models.Book
	for bookRows.Next() {
		var (
			b      models.Book
			author sql.NullString
		)
		if err := bookRows.Scan(&b.ID, &b.Title, &author, &b.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("cache: scan book: %w", err)
		}
		if author.Valid {
			b.Author = &author.String
		}
		books = append(books, b)
	}
	if err := bookRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("cache: iterate books: %w", err)
	}

	noteRows, err := db.conn.Query(`SELECT id, book_id, text, created_at FROM notes ORDER BY pos`)
	if err != nil {
		return nil, nil, fmt.Errorf("cache: query notes: %w", err)
	}
	defer noteRows.Close()

	var notes []models.Note
	for noteRows.Next() {
		var (
			n      models.Note
			bookID sql.NullInt64
		)
		if err := noteRows.Scan(&n.ID, &bookID, &n.Text, &n.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("cache: scan note: %w", err)
		}
		if bookID.Valid {
			n.BookID = &bookID.Int64
		}
		notes = append(notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("cache: iterate notes: %w", err)
	}

	return books, notes, nil
}
