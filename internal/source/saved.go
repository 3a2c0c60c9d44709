package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ToggleStatus records how a saved-listing toggle resolved.
type ToggleStatus string

// Toggle outcomes.
const (
	// ToggleCommitted means the source accepted the flip; Saved holds
	// the authoritative state it returned.
	ToggleCommitted ToggleStatus = "committed"
	// ToggleRolledBack means the request failed and the caller should
	// restore the previous state.
	ToggleRolledBack ToggleStatus = "rolled_back"
)

// ToggleOutcome is the result of a two-phase saved-listing toggle:
// apply the tentative state, issue the request, then either reconcile
// with the source's answer or roll back.
type ToggleOutcome struct {
	Status ToggleStatus
	Saved  bool
	Err    error
}

// savedResponse is the source's reply to a toggle request.
type savedResponse struct {
	Saved bool `json:"saved"`
}

// ToggleSaved flips a listing's saved status. The caller applies
// !current optimistically before calling; the outcome tells it whether
// to keep that tentative state (reconciled to the source's authoritative
// value) or roll back to current. Saved status is a per-user effect on
// the source side and never invalidates cached match results.
func (c *Client) ToggleSaved(ctx context.Context, listingID uuid.UUID, current bool) ToggleOutcome {
	endpoint := fmt.Sprintf("%s/listings/%s/saved", strings.TrimSuffix(c.opts.BaseURL, "/"), listingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return ToggleOutcome{Status: ToggleRolledBack, Saved: current, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return ToggleOutcome{
			Status: ToggleRolledBack,
			Saved:  current,
			Err:    &Error{Op: "toggle saved", Message: "HTTP request failed", Cause: err},
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return ToggleOutcome{Status: ToggleRolledBack, Saved: current, Err: ErrUnauthorized}
	}
	if resp.StatusCode != http.StatusOK {
		return ToggleOutcome{
			Status: ToggleRolledBack,
			Saved:  current,
			Err: &Error{
				Op:         "toggle saved",
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			},
		}
	}

	var body savedResponse
	if err := decodeJSON(resp, &body); err != nil {
		// The flip went through but the reply was unreadable; trust the
		// tentative state rather than rolling back a committed change.
		return ToggleOutcome{Status: ToggleCommitted, Saved: !current}
	}
	return ToggleOutcome{Status: ToggleCommitted, Saved: body.Saved}
}
