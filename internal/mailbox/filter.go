// Package mailbox holds the inbox view state: which emails are visible under
// the current status filter and search term, and which one is selected.
package mailbox

import (
	"fmt"
	"strings"

	"github.com/nhle/mailmuse/internal/model"
)

// StatusFilter narrows the inbox by email status.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterPending  StatusFilter = "pending"
	FilterResolved StatusFilter = "resolved"
)

// StatusFilters lists the filters in tab-cycling order.
var StatusFilters = []StatusFilter{FilterAll, FilterPending, FilterResolved}

// ParseStatusFilter converts user input into a StatusFilter.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterPending, FilterResolved:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want all, pending or resolved)", s)
}

// Next returns the filter after f in tab-cycling order.
func (f StatusFilter) Next() StatusFilter {
	for i, sf := range StatusFilters {
		if sf == f {
			return StatusFilters[(i+1)%len(StatusFilters)]
		}
	}
	return FilterAll
}

// Matches reports whether e passes both the status filter and the search
// term. A blank term matches everything; otherwise the term must appear,
// ignoring case, in the sender name, subject or body. Unknown filters match
// nothing.
func Matches(e model.Email, filter StatusFilter, term string) bool {
	switch filter {
	case FilterAll:
	case FilterPending, FilterResolved:
		if string(e.Status) != string(filter) {
			return false
		}
	default:
		return false
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Sender), term) ||
		strings.Contains(strings.ToLower(e.Subject), term) ||
		strings.Contains(strings.ToLower(e.Body), term)
}
