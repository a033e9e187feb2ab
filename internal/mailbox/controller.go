package mailbox

import "github.com/nhle/mailmuse/internal/model"

// Controller owns the inbox view state. Every mutation recomputes the
// visible set and repairs the selection so that it always names a visible
// email, or nothing when the visible set is empty.
//
// A Controller is not safe for concurrent use; the TUI drives it from its
// single update loop.
type Controller struct {
	records []model.Email
	visible []model.Email

	filter StatusFilter
	term   string

	selectedID string
	selected   bool
}

// New creates a controller over records with the default view state
// (all statuses, empty search). A non-empty record set selects its first
// email.
func New(records []model.Email) *Controller {
	c := &Controller{filter: FilterAll}
	c.records = clone(records)
	c.refresh()
	return c
}

// SetStatusFilter changes the status filter.
func (c *Controller) SetStatusFilter(f StatusFilter) {
	c.filter = f
	c.refresh()
}

// SetSearchTerm changes the search term.
func (c *Controller) SetSearchTerm(term string) {
	c.term = term
	c.refresh()
}

// ReplaceRecords swaps the full record set, for example after a status
// toggle or a reload. Input order is kept.
func (c *Controller) ReplaceRecords(records []model.Email) {
	c.records = clone(records)
	c.refresh()
}

// SelectEmail selects the email with id if it is currently visible and
// reports whether it did. Ids outside the visible set are ignored.
func (c *Controller) SelectEmail(id string) bool {
	for _, e := range c.visible {
		if e.ID == id {
			c.selectedID = id
			c.selected = true
			return true
		}
	}
	return false
}

// VisibleEmails returns the filtered view in record order. The returned
// slice is a copy.
func (c *Controller) VisibleEmails() []model.Email {
	return clone(c.visible)
}

// SelectedEmail resolves the selection against the full record set.
func (c *Controller) SelectedEmail() (model.Email, bool) {
	if !c.selected {
		return model.Email{}, false
	}
	for _, e := range c.records {
		if e.ID == c.selectedID {
			return e, true
		}
	}
	return model.Email{}, false
}

// Records returns a copy of the full record set.
func (c *Controller) Records() []model.Email {
	return clone(c.records)
}

func (c *Controller) StatusFilter() StatusFilter { return c.filter }
func (c *Controller) SearchTerm() string         { return c.term }

// SelectedID returns the selected id, or "" and false when nothing is
// selected.
func (c *Controller) SelectedID() (string, bool) {
	return c.selectedID, c.selected
}

// SelectedIndex returns the position of the selection within the visible
// set, or -1 when nothing is selected.
func (c *Controller) SelectedIndex() int {
	if !c.selected {
		return -1
	}
	for i, e := range c.visible {
		if e.ID == c.selectedID {
			return i
		}
	}
	return -1
}

// refresh recomputes the visible set and repairs the selection.
func (c *Controller) refresh() {
	c.visible = c.visible[:0]
	for _, e := range c.records {
		if Matches(e, c.filter, c.term) {
			c.visible = append(c.visible, e)
		}
	}

	if c.selected {
		for _, e := range c.visible {
			if e.ID == c.selectedID {
				return
			}
		}
	}

	if len(c.visible) == 0 {
		c.selectedID = ""
		c.selected = false
		return
	}
	c.selectedID = c.visible[0].ID
	c.selected = true
}

func clone(emails []model.Email) []model.Email {
	if emails == nil {
		return nil
	}
	out := make([]model.Email, len(emails))
	copy(out, emails)
	return out
}
