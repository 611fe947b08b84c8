// Package board turns a feed snapshot plus the user's action state into
// the three display partitions. Everything here is pure: same inputs,
// same board, no I/O and no clocks other than the now argument.
package board

import (
	"sort"
	"time"

	"vacancyboard-engine/internal/domain"
)

// Card is one listing annotated with derived display fields.
type Card struct {
	domain.Listing

	DaysLeft    *int        `json:"daysLeft,omitempty"`
	Urgency     string      `json:"urgency"`
	UserAction  string      `json:"userAction,omitempty"` // applied | not_interested
	UserVote    domain.Vote `json:"userVote,omitempty"`
}

// Board is the partitioned view. Every non-hidden listing lands in exactly
// one of the three slices.
type Board struct {
	Open    []Card `json:"open"`
	Applied []Card `json:"applied"`
	Other   []Card `json:"other"`
}

// Partition classifies every listing into open/applied/other.
//
// Precedence per listing: an action record wins, then the feed's section
// pre-classification, then deadline expiry (undecided expired listings are
// auto-archived to other), then open. Hidden listings are dropped entirely.
func Partition(listings []domain.Listing, sections domain.Sections, actions map[string]domain.ActionRecord, votes map[string]domain.Vote, now time.Time) Board {
	inApplied := idSet(sections.Applied)
	inOther := idSet(sections.Other)

	var b Board
	for _, l := range listings {
		if l.Flags.Hidden {
			continue
		}

		c := Card{Listing: l, UserVote: votes[l.ID]}
		if dl, ok := DaysLeft(l.Deadline, now); ok {
			v := dl
			c.DaysLeft = &v
			c.Urgency = UrgencyTier(dl, true)
		} else {
			c.Urgency = UrgencyTier(0, false)
		}

		rec, hasRec := actions[l.ID]
		switch {
		case hasRec && rec.Action == domain.ActionApplied:
			c.UserAction = string(domain.ActionApplied)
			b.Applied = append(b.Applied, c)
		case hasRec && rec.Action == domain.ActionNotInterested:
			c.UserAction = string(domain.ActionNotInterested)
			b.Other = append(b.Other, c)
		case inApplied[l.ID]:
			b.Applied = append(b.Applied, c)
		case inOther[l.ID]:
			b.Other = append(b.Other, c)
		case Expired(l.Deadline, now):
			b.Other = append(b.Other, c)
		default:
			b.Open = append(b.Open, c)
		}
	}

	sortCards(b.Open)
	sortCards(b.Applied)
	sortCards(b.Other)
	return b
}

// sortCards orders by ascending parsed deadline, undated after all dated,
// then ascending title, then id. The id tiebreak keeps the order stable
// regardless of input order.
func sortCards(cs []Card) {
	sort.SliceStable(cs, func(i, j int) bool {
		di, oki := ParseDeadline(cs[i].Deadline)
		dj, okj := ParseDeadline(cs[j].Deadline)
		if oki != okj {
			return oki
		}
		if oki && okj && !di.Equal(dj) {
			return di.Before(dj)
		}
		if cs[i].Title != cs[j].Title {
			return cs[i].Title < cs[j].Title
		}
		return cs[i].ID < cs[j].ID
	})
}

func idSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
