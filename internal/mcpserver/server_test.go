package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/client"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.FakeRemote) {
	t.Helper()
	fake := testutil.NewFakeRemote()
	remote := fake.Server(t)
	srv := New(client.New(remote.URL, nil))
	return srv, fake
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_books":
		result, err = srv.listBooks(ctx, req)
	case "create_book":
		result, err = srv.createBook(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "recompute_clusters":
		result, err = srv.recomputeClusters(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}

func TestCreateAndListBooks(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_book", map[string]interface{}{
		"title":  "Dune",
		"author": "Frank Herbert",
	})
	if r.IsError {
		t.Fatalf("create_book failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"Dune"`) {
		t.Errorf("create result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_books", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "Dune") || !strings.Contains(text, "Frank Herbert") {
		t.Errorf("list result = %q", text)
	}
}

func TestCreateBookMissingTitle(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_book", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when title is missing")
	}
}

func TestCreateNoteWithAndWithoutBook(t *testing.T) {
	srv, fake := testServer(t)
	b := fake.AddBook("Dune", nil)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"text": "unattached thought",
	})
	if r.IsError {
		t.Fatalf("create_note failed: %s", resultText(r))
	}
	if strings.Contains(resultText(r), `"book_id":`) && !strings.Contains(resultText(r), `"book_id": null`) {
		t.Errorf("unattached note result = %q", resultText(r))
	}

	r = callTool(t, srv, "create_note", map[string]interface{}{
		"text":    "sandworms",
		"book_id": float64(b.ID),
	})
	if r.IsError {
		t.Fatalf("attached create_note failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"book_id": 1`) {
		t.Errorf("attached note result = %q", resultText(r))
	}
}

func TestCreateNoteUnknownBookSurfacesServiceError(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{
		"text":    "orphan",
		"book_id": float64(99),
	})
	if !r.IsError {
		t.Fatal("expected error for unknown book")
	}
	if !strings.Contains(resultText(r), "book 99 not found") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestSearchNotes(t *testing.T) {
	srv, fake := testServer(t)
	fake.SetHits([]models.NoteSearchHit{
		{Note: models.Note{ID: 1, Text: "the ocean thinks"}, Score: 0.91},
	})

	r := callTool(t, srv, "search_notes", map[string]interface{}{
		"query": "ocean",
	})
	if r.IsError {
		t.Fatalf("search_notes failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "the ocean thinks") || !strings.Contains(text, "0.91") {
		t.Errorf("search result = %q", text)
	}
	if got := fake.LastQuery().Get("q"); got != "ocean" {
		t.Errorf("q = %q", got)
	}
	if fake.LastQuery().Has("book_id") {
		t.Error("book_id should be omitted when absent")
	}
}

func TestSearchNotesScopedToBook(t *testing.T) {
	srv, fake := testServer(t)
	fake.SetHits([]models.NoteSearchHit{
		{Note: models.Note{ID: 1, Text: "x", BookID: ptr(int64(7))}, Score: 0.5},
	})

	callTool(t, srv, "search_notes", map[string]interface{}{
		"query":   "x",
		"book_id": float64(7),
		"k":       float64(5),
	})
	q := fake.LastQuery()
	if q.Get("book_id") != "7" || q.Get("k") != "5" {
		t.Errorf("query = %v", q)
	}
}

func TestSearchNotesEmpty(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "nothing"})
	if resultText(r) != "no hits" {
		t.Errorf("result = %q, want %q", resultText(r), "no hits")
	}
}

func TestRecomputeClusters(t *testing.T) {
	srv, fake := testServer(t)
	fake.SetClusters([]models.ClusterOut{
		{
			ClusterID: 0,
			Size:      2,
			Keywords:  []string{"sea", "waves"},
			Representatives: []models.Representative{
				{Note: models.Note{ID: 1, Text: "the ocean thinks"}, Score: 0.8},
			},
		},
	})

	r := callTool(t, srv, "recompute_clusters", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("recompute_clusters failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "waves") || !strings.Contains(text, "the ocean thinks") {
		t.Errorf("cluster result = %q", text)
	}
	q := fake.LastQuery()
	if q.Get("k") != "3" || q.Get("per_cluster") != "2" {
		t.Errorf("defaults not applied, query = %v", q)
	}
}

func TestRecomputeClustersEmpty(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "recompute_clusters", map[string]interface{}{})
	if resultText(r) != "no clusters" {
		t.Errorf("result = %q, want %q", resultText(r), "no clusters")
	}
}

func TestUsageResource(t *testing.T) {
	srv, _ := testServer(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "ansuz://usage"
	contents, err := srv.readUsageResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.Text == "" {
		t.Errorf("unexpected resource contents: %+v", contents[0])
	}
}
