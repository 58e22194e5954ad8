package pagination

// Cursor pagination over the change feed. Since is the last seq the client
// has applied; the next page starts after it.
type CursorParams struct {
	Since int64
	Limit int
}

func NewCursorParams(since int64, limit, defaultLimit, maxLimit int) CursorParams {
	if since < 0 {
		since = 0
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return CursorParams{Since: since, Limit: limit}
}

// Fetch is the number of rows to read so a following page can be detected.
func (p CursorParams) Fetch() int {
	return p.Limit + 1
}

type Info struct {
	Cursor  int64 `json:"cursor"`
	HasMore bool  `json:"has_more"`
}
