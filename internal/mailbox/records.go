package mailbox

import "github.com/nhle/mailmuse/internal/model"

// ReplaceByID returns a copy of records with the element whose ID matches
// updated replaced by it. The second result is false when no element has
// that ID, in which case the copy is unchanged.
func ReplaceByID(records []model.Email, updated model.Email) ([]model.Email, bool) {
	out := clone(records)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
			return out, true
		}
	}
	return out, false
}

// ToggleStatus returns e with its status flipped between pending and
// resolved.
func ToggleStatus(e model.Email) model.Email {
	if e.Status == model.StatusResolved {
		e.Status = model.StatusPending
	} else {
		e.Status = model.StatusResolved
	}
	return e
}
