// Package table holds the filter and sort state of the ranked brand table and
// derives the visible rows from it.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jamespassby/retail-dashboard-final/pkg/rank"
)

// Key names a sortable column.
type Key string

const (
	KeyCurrentRank   Key = "currentRank"
	KeyRankChange    Key = "rankChange"
	KeyCurrentGrowth Key = "currentGrowth"
	KeyCurrentHeat   Key = "currentHeat"
	KeyCurrentTotal  Key = "currentTotal"
	KeyBrandName     Key = "brand_name"
)

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var (
	ErrUnknownKey       = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
)

// Keys returns the sortable columns in display order.
func Keys() []Key {
	return []Key{KeyCurrentRank, KeyRankChange, KeyCurrentGrowth, KeyCurrentHeat, KeyCurrentTotal, KeyBrandName}
}

// ParseKey accepts a column key, case-insensitively.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	for _, k := range Keys() {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// ParseDirection accepts "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// DefaultDirection is the order a column starts in when first selected.
// Rank and name read best ascending; scores and rank change descending.
func DefaultDirection(k Key) Direction {
	if k == KeyCurrentRank || k == KeyBrandName {
		return Asc
	}
	return Desc
}

// State is the table's filter and sort selection. Methods return updated
// copies and never modify the receiver.
type State struct {
	SortKey    Key       `json:"sort_key"`
	Direction  Direction `json:"direction"`
	Categories []string  `json:"categories,omitempty"`
}

// DefaultState sorts by current rank ascending with no category filter.
func DefaultState() State {
	return State{SortKey: KeyCurrentRank, Direction: Asc}
}

// Toggle handles a click on a column header.
func (s State) Toggle(k Key) State {
	out := s.clone()
	if s.SortKey == k {
		if s.Direction == Asc {
			out.Direction = Desc
		} else {
			out.Direction = Asc
		}
		return out
	}
	out.SortKey = k
	out.Direction = DefaultDirection(k)
	return out
}

// WithCategories replaces the category filter.
func (s State) WithCategories(categories ...string) State {
	out := s
	out.Categories = nil
	for _, c := range categories {
		if c != "" && !contains(out.Categories, c) {
			out.Categories = append(out.Categories, c)
		}
	}
	return out
}

// ToggleCategory adds c to the filter, or removes it if already selected.
func (s State) ToggleCategory(c string) State {
	out := s.clone()
	for i, existing := range out.Categories {
		if existing == c {
			out.Categories = append(out.Categories[:i], out.Categories[i+1:]...)
			return out
		}
	}
	out.Categories = append(out.Categories, c)
	return out
}

// ClearCategories removes the category filter.
func (s State) ClearCategories() State {
	out := s
	out.Categories = nil
	return out
}

func (s State) clone() State {
	out := s
	out.Categories = append([]string(nil), s.Categories...)
	return out
}

// Visible filters rows by the selected categories and sorts them by the
// selected column. Rows without a value for the column always sort last.
// The input slice is left untouched.
func Visible(rows []rank.Row, s State) []rank.Row {
	out := make([]rank.Row, 0, len(rows))
	for _, r := range rows {
		if len(s.Categories) > 0 && !contains(s.Categories, r.TopCategory) {
			continue
		}
		out = append(out, r)
	}

	key := s.SortKey
	if key == "" {
		key = KeyCurrentRank
	}
	desc := s.Direction == Desc

	sort.SliceStable(out, func(i, j int) bool {
		c, ok := compare(out[i], out[j], key)
		if !ok {
			return c < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compare orders a against b on key. ok is false when at least one side is
// missing; c then places the missing side last regardless of direction.
func compare(a, b rank.Row, key Key) (c int, ok bool) {
	if key == KeyBrandName {
		return strings.Compare(a.BrandName, b.BrandName), true
	}

	va, vb := value(a, key), value(b, key)
	switch {
	case va == nil && vb == nil:
		return 0, false
	case va == nil:
		return 1, false
	case vb == nil:
		return -1, false
	case *va < *vb:
		return -1, true
	case *va > *vb:
		return 1, true
	}
	return 0, true
}

func value(r rank.Row, key Key) *int {
	switch key {
	case KeyCurrentRank:
		return r.CurrentRank
	case KeyRankChange:
		return r.RankChange
	case KeyCurrentGrowth:
		return r.CurrentGrowth
	case KeyCurrentHeat:
		return r.CurrentHeat
	case KeyCurrentTotal:
		return r.CurrentTotal
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
