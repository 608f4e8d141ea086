// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Reading Notes operations as tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/client"
)

// Server wraps the MCP server with the Reading Notes tools.
type Server struct {
	mcp *server.MCPServer
	c   *client.Client
}

// New creates a new MCP server with all tools registered.
func New(c *client.Client) *Server {
	s := &Server{c: c}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List books known to the Reading Notes service."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of books to return")),
	), s.listBooks)

	s.mcp.AddTool(mcp.NewTool("create_book",
		mcp.WithDescription("Create a new book. The title must be non-empty after trimming."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
		mcp.WithString("author", mcp.Description("Optional author name")),
	), s.createBook)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the most recent notes."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of notes to return")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note, optionally attached to a book."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text, non-empty after trimming")),
		mcp.WithNumber("book_id", mcp.Description("Optional id of the book to attach the note to")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Semantic similarity search over notes. Hits come back "+
			"sorted by descending relevance score; the score has no fixed bound."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text search query")),
		mcp.WithNumber("k", mcp.Description("Maximum number of hits (default 10)")),
		mcp.WithNumber("book_id", mcp.Description("Optional book id restricting the search to that book's notes")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("recompute_clusters",
		mcp.WithDescription("Regroup notes into thematic clusters with keywords and "+
			"representative excerpts. k and per_cluster are requests to the remote "+
			"algorithm, not guarantees."),
		mcp.WithNumber("k", mcp.Description("Requested number of themes (default 3)")),
		mcp.WithNumber("per_cluster", mcp.Description("Requested representatives per theme (default 2)")),
		mcp.WithNumber("book_id", mcp.Description("Optional book id restricting clustering to that book's notes")),
	), s.recomputeClusters)

	// Resource: service usage notes.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://usage", "Reading Notes Usage",
			mcp.WithResourceDescription("How the search and clustering tools behave."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readUsageResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen serves MCP over the given streams until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optionalBookID extracts the book_id argument as a tagged optional: nil
// when the argument is absent, so the query parameter is omitted entirely.
func optionalBookID(req mcp.CallToolRequest) *int64 {
	args := req.GetArguments()
	if _, ok := args["book_id"]; !ok {
		return nil
	}
	id := int64(req.GetInt("book_id", 0))
	if id == 0 {
		return nil
	}
	return &id
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", client.DefaultBookLimit)
	books, err := s.c.ListBooks(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(books)
}

func (s *Server) createBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var author *string
	if a := req.GetString("author", ""); a != "" {
		author = &a
	}
	book, err := s.c.CreateBook(ctx, title, author)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(book)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", client.DefaultNoteLimit)
	notes, err := s.c.ListNotes(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.c.CreateNote(ctx, text, optionalBookID(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	k := req.GetInt("k", client.DefaultSearchK)
	hits, err := s.c.SearchNotes(ctx, query, k, optionalBookID(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no hits"), nil
	}
	return jsonResult(hits)
}

func (s *Server) recomputeClusters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	k := req.GetInt("k", client.DefaultClusterK)
	perCluster := req.GetInt("per_cluster", client.DefaultPerCluster)
	clusters, err := s.c.RecomputeClusters(ctx, k, perCluster, optionalBookID(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(clusters) == 0 {
		return mcp.NewToolResultText("no clusters"), nil
	}
	return jsonResult(clusters)
}

func (s *Server) readUsageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://usage",
			MIMEType: "text/markdown",
			Text:     UsageNotes,
		},
	}, nil
}
