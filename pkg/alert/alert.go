package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamespassby/retail-dashboard-final/pkg/rank"
)

// Mover is a brand whose rank changed enough to report.
type Mover struct {
	BrandName    string `json:"brand_name"`
	Category     string `json:"category,omitempty"`
	CurrentRank  *int   `json:"current_rank"`
	PreviousRank *int   `json:"previous_rank"`
	RankChange   int    `json:"rank_change"`
	CurrentTotal *int   `json:"current_total"`
}

// Direction describes the move in words, e.g. "up 3".
func (m Mover) Direction() string {
	if m.RankChange > 0 {
		return fmt.Sprintf("up %d", m.RankChange)
	}
	return fmt.Sprintf("down %d", -m.RankChange)
}

// MoversFrom converts ranked rows into movers. Rows without a rank change
// are skipped.
func MoversFrom(rows []rank.Row) []Mover {
	out := make([]Mover, 0, len(rows))
	for _, r := range rows {
		if r.RankChange == nil {
			continue
		}
		out = append(out, Mover{
			BrandName:    r.BrandName,
			Category:     r.TopCategory,
			CurrentRank:  r.CurrentRank,
			PreviousRank: r.PreviousRank,
			RankChange:   *r.RankChange,
			CurrentTotal: r.CurrentTotal,
		})
	}
	return out
}

// Notification is the data sent to alert destinations.
type Notification struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	ImportID string  `json:"import_id,omitempty"`
	Movers   []Mover `json:"movers"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers. Every notifier
// is tried; failures are joined into the returned error.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// maxListed caps how many movers chat notifiers render.
const maxListed = 10

func listed(movers []Mover) []Mover {
	if len(movers) > maxListed {
		return movers[:maxListed]
	}
	return movers
}

func rankText(v *int) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("#%d", *v)
}
