package mcpserver

// UsageNotes describes the retrieval semantics to LLM consumers so they
// can set expectations about scores, cluster stability, and book scoping.
const UsageNotes = `# Reading Notes Usage

## Search (search_notes)

- Hits are ranked by meaning-similarity, not keyword match. The scoring is
  computed entirely by the remote service; results arrive pre-sorted by
  descending score and must not be re-sorted.
- Scores have no fixed bound. Compare them only within a single response.
- Pass ` + "`book_id`" + ` to restrict the search to notes attached to one
  book. Leave it out (do not pass null or 0) to search all notes.

## Clustering (recompute_clusters)

- Each call recomputes the grouping from scratch. ` + "`cluster_id`" + ` is
  only unique within one response and is NOT stable across calls.
- ` + "`k`" + ` and ` + "`per_cluster`" + ` are requests, not guarantees:
  the service may return fewer themes or fewer representatives, and cluster
  sizes need not sum to the total note count.
- ` + "`keywords`" + ` summarize a theme; ` + "`representatives`" + ` are
  its most central notes with centrality scores.

## Notes and books

- A note's ` + "`book_id`" + ` may be null: unattached notes are valid.
- Ids referenced by search or cluster results were resolvable when the
  response was produced; treat an id that no longer resolves as "no book".
`
