package app

// The appreviews cursor does not reliably signal end-of-data: on the last
// page upstream usually hands back a cursor it already issued instead of an
// empty one. The documented heuristic is to stop on the first repeat; pages
// beyond that point are unreachable through normal pagination. A hard page
// cap bounds worst-case API consumption against upstream anomalies.

// Decision is the cursor controller's verdict after one fetched page.
type Decision int

const (
	Continue Decision = iota
	StopEndOfData
	StopCursorRepeat
	StopPageCap
)

func (d Decision) Stopped() bool { return d != Continue }

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case StopEndOfData:
		return "end_of_data"
	case StopCursorRepeat:
		return "cursor_repeat"
	case StopPageCap:
		return "page_cap"
	default:
		return "unknown"
	}
}

// PaginationState tracks one game's fetch loop: the cursor to fetch next,
// every cursor issued so far, and the number of pages fetched. Values are
// immutable; Advance returns a new state rather than mutating the receiver.
type PaginationState struct {
	Cursor  string
	Pages   int
	maxPage int
	seen    map[string]struct{}
}

// NewPaginationState opens a fetch loop at the first-page sentinel cursor.
func NewPaginationState(firstCursor string, maxPages int) PaginationState {
	return PaginationState{
		Cursor:  firstCursor,
		maxPage: maxPages,
		seen:    map[string]struct{}{firstCursor: {}},
	}
}

// Advance consumes the next_cursor from the page just fetched and decides
// whether to keep paginating. Precedence: empty cursor, then repetition,
// then the page cap — all stop, the order only affects the diagnostic label.
func (s PaginationState) Advance(next string) (PaginationState, Decision) {
	out := PaginationState{
		Cursor:  s.Cursor,
		Pages:   s.Pages + 1,
		maxPage: s.maxPage,
		seen:    s.seen,
	}

	if next == "" {
		return out, StopEndOfData
	}
	if _, dup := s.seen[next]; dup {
		return out, StopCursorRepeat
	}
	if out.Pages >= s.maxPage {
		return out, StopPageCap
	}

	seen := make(map[string]struct{}, len(s.seen)+1)
	for c := range s.seen {
		seen[c] = struct{}{}
	}
	seen[next] = struct{}{}
	out.Cursor = next
	out.seen = seen
	return out, Continue
}
