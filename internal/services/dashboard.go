package services

import (
	"context"
	"time"

	"keep-backend-go/internal/policy"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	TotalAssets  int             `json:"totalAssets"`
	ByStatus     map[string]int  `json:"byStatus"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	InsuredCount int             `json:"insuredCount"`
	WithNotes    int             `json:"withNotes"`
}

// Stats aggregates the principal's inventory. Results are served from the
// stats cache until a mutation invalidates them.
func (s *Inventory) Stats(ctx context.Context, p policy.Principal) (Stats, error) {
	if !p.Authenticated() {
		return Stats{}, ErrAccessDenied
	}
	if cached, ok, err := s.Cache.Get(ctx, p.ID); err != nil {
		s.Log.Warn("stats cache read failed", zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	stats := Stats{ByStatus: map[string]int{
		"available":   0,
		"assigned":    0,
		"maintenance": 0,
		"retired":     0,
	}}
	var (
		statusRows []struct {
			Status string          `db:"status"`
			Count  int             `db:"count"`
			Value  decimal.Decimal `db:"value"`
		}
		insured   int
		withNotes int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DB.SelectContext(gctx, &statusRows, `
SELECT status, COUNT(*) AS count, COALESCE(SUM(value), 0) AS value
FROM assets
WHERE owner_id = $1
GROUP BY status
`, p.ID)
	})
	g.Go(func() error {
		return s.DB.GetContext(gctx, &insured, `
SELECT COUNT(DISTINCT i.asset_id)
FROM asset_insurance i
JOIN assets a ON a.id = i.asset_id
WHERE a.owner_id = $1 AND i.is_insured
`, p.ID)
	})
	g.Go(func() error {
		return s.DB.GetContext(gctx, &withNotes, `
SELECT COUNT(DISTINCT n.asset_id)
FROM asset_notes n
JOIN assets a ON a.id = n.asset_id
WHERE a.owner_id = $1
`, p.ID)
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalAssets += row.Count
		stats.TotalValue = stats.TotalValue.Add(row.Value)
	}
	stats.InsuredCount = insured
	stats.WithNotes = withNotes

	if err := s.Cache.Set(ctx, p.ID, stats); err != nil {
		s.Log.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

type RenewalReminder struct {
	AssetID     string    `db:"asset_id" json:"assetId"`
	AssetName   string    `db:"asset_name" json:"assetName"`
	Provider    *string   `db:"provider" json:"provider"`
	RenewalDate time.Time `db:"renewal_date" json:"renewalDate"`
}

type OverdueReminder struct {
	AssignmentID string    `db:"id" json:"assignmentId"`
	AssetID      string    `db:"asset_id" json:"assetId"`
	AssetName    string    `db:"asset_name" json:"assetName"`
	AssignedTo   string    `db:"assigned_to" json:"assignedTo"`
	DueDate      time.Time `db:"due_date" json:"dueDate"`
}

type Reminders struct {
	Renewals []RenewalReminder `json:"renewals"`
	Overdue  []OverdueReminder `json:"overdue"`
}

const defaultReminderDays = 30

// Reminders lists insurance renewals due within days and open assignments past
// their due date.
func (s *Inventory) Reminders(ctx context.Context, p policy.Principal, days int) (Reminders, error) {
	if !p.Authenticated() {
		return Reminders{}, ErrAccessDenied
	}
	if days < 1 || days > 365 {
		days = defaultReminderDays
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, days)

	result := Reminders{Renewals: []RenewalReminder{}, Overdue: []OverdueReminder{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.DB.SelectContext(gctx, &result.Renewals, `
SELECT i.asset_id, a.name AS asset_name, i.provider, i.renewal_date
FROM asset_insurance i
JOIN assets a ON a.id = i.asset_id
WHERE a.owner_id = $1
  AND i.is_insured
  AND i.renewal_date IS NOT NULL
  AND i.renewal_date >= $2 AND i.renewal_date <= $3
ORDER BY i.renewal_date
`, p.ID, today, until)
	})
	g.Go(func() error {
		return s.DB.SelectContext(gctx, &result.Overdue, `
SELECT s.id, s.asset_id, a.name AS asset_name, s.assigned_to, s.due_date
FROM asset_assignments s
JOIN assets a ON a.id = s.asset_id
WHERE a.owner_id = $1
  AND s.return_date IS NULL
  AND s.due_date IS NOT NULL
  AND s.due_date < $2
ORDER BY s.due_date
`, p.ID, now)
	})
	if err := g.Wait(); err != nil {
		return Reminders{}, err
	}
	return result, nil
}
