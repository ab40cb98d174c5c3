package entities

import (
	"strings"
	"time"
	"unicode"
)

type Category struct {
	CategoryID  string
	Name        string
	Description string
	Active      bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contestant is a nominee in one category. VoteCount is owned by the vote
// ledger; the catalog only reads it.
type Contestant struct {
	ContestantID string
	CategoryID   string
	Name         string
	PhotoRef     string
	VoteCount    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Slug derives a stable identifier from a display name, e.g.
// "Best Blogger/Content Creator" becomes "best-blogger-content-creator".
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
