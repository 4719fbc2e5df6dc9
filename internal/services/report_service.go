package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/gateway"
	"teamfin/internal/storage"
)

// Balance sums contributions of a single currency.
type Balance struct {
	Currency    core.Currency
	Due         core.Money
	Paid        core.Money
	Outstanding core.Money
}

func newBalance(c core.Currency) Balance {
	return Balance{Currency: c, Due: core.Zero(c), Paid: core.Zero(c), Outstanding: core.Zero(c)}
}

func (b *Balance) add(due, paid core.Money) {
	b.Due.Minor += due.Minor
	b.Paid.Minor += paid.Minor
	b.Outstanding.Minor += due.Minor - paid.Minor
}

type MemberBalance struct {
	TeamUserID uuid.UUID
	UserID     uuid.UUID
	Name       string
	Balance
	Open    int
	Overdue int
}

type TeamReport struct {
	TeamID       uuid.UUID
	TeamName     string
	GeneratedAt  time.Time
	Totals       []Balance
	PaidCount    int
	OpenCount    int
	OverdueCount int
	Members      []MemberBalance
}

// ReportService builds read-side views over a team's contributions.
type ReportService struct {
	Deps
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{Deps: d}
}

// TeamReport totals the team's active contributions per currency and per
// member. Partial payments count toward the paid amount of open
// contributions.
func (s *ReportService) TeamReport(ctx context.Context, teamID uuid.UUID, now time.Time) (TeamReport, error) {
	team, err := s.Store.GetTeam(ctx, teamID)
	if err != nil {
		return TeamReport{}, err
	}
	members, err := s.Store.ListTeamUsers(ctx, teamID)
	if err != nil {
		return TeamReport{}, err
	}
	contributions, err := s.Store.ListContributions(ctx, storage.ContributionFilter{TeamID: teamID})
	if err != nil {
		return TeamReport{}, err
	}

	names := make(map[uuid.UUID]string, len(members))
	userIDs := make(map[uuid.UUID]uuid.UUID, len(members))
	for _, m := range members {
		userIDs[m.ID] = m.UserID
		if u, err := s.Store.GetUser(ctx, m.UserID); err == nil {
			names[m.ID] = u.Name
		}
	}

	type key struct {
		member   uuid.UUID
		currency core.Currency
	}
	totals := map[core.Currency]*Balance{}
	perMember := map[key]*MemberBalance{}
	report := TeamReport{TeamID: team.ID, TeamName: team.Name, GeneratedAt: now.UTC()}

	for _, c := range contributions {
		if !c.Active {
			continue
		}
		paid, err := s.paidAmount(ctx, c)
		if err != nil {
			return TeamReport{}, err
		}

		cur := c.Amount.Currency
		if totals[cur] == nil {
			b := newBalance(cur)
			totals[cur] = &b
		}
		totals[cur].add(c.Amount, paid)

		k := key{c.TeamUserID, cur}
		mb := perMember[k]
		if mb == nil {
			mb = &MemberBalance{
				TeamUserID: c.TeamUserID,
				UserID:     userIDs[c.TeamUserID],
				Name:       names[c.TeamUserID],
				Balance:    newBalance(cur),
			}
			perMember[k] = mb
		}
		mb.add(c.Amount, paid)

		switch {
		case c.IsPaid():
			report.PaidCount++
		case c.IsOverdue(now):
			report.OverdueCount++
			report.OpenCount++
			mb.Open++
			mb.Overdue++
		default:
			report.OpenCount++
			mb.Open++
		}
	}

	for _, b := range totals {
		report.Totals = append(report.Totals, *b)
	}
	sort.Slice(report.Totals, func(i, j int) bool { return report.Totals[i].Currency < report.Totals[j].Currency })
	for _, mb := range perMember {
		report.Members = append(report.Members, *mb)
	}
	sort.Slice(report.Members, func(i, j int) bool {
		a, b := report.Members[i], report.Members[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.TeamUserID != b.TeamUserID {
			return a.TeamUserID.String() < b.TeamUserID.String()
		}
		return a.Currency < b.Currency
	})
	return report, nil
}

func (s *ReportService) paidAmount(ctx context.Context, c *core.Contribution) (core.Money, error) {
	if c.IsPaid() {
		return c.Amount, nil
	}
	payments, err := s.Store.ListPayments(ctx, c.ID)
	if err != nil {
		return core.Money{}, err
	}
	summary, err := core.SummarizePayments(c, payments)
	if err != nil {
		return core.Money{}, err
	}
	return summary.Total, nil
}

// ExportContributions writes the team's contributions in the import format.
func (s *ReportService) ExportContributions(ctx context.Context, teamID uuid.UUID, w io.Writer) (int, error) {
	if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
		return 0, err
	}
	contributions, err := s.Store.ListContributions(ctx, storage.ContributionFilter{TeamID: teamID})
	if err != nil {
		return 0, err
	}
	cw, err := gateway.NewContributionWriter(w)
	if err != nil {
		return 0, err
	}
	for _, c := range contributions {
		rec := gateway.ContributionRecord{
			TeamUserID:  c.TeamUserID.String(),
			TypeID:      c.TypeID.String(),
			Description: c.Description,
			Amount:      strconv.FormatInt(c.Amount.Minor, 10),
			Currency:    string(c.Amount.Currency),
			DueDate:     c.DueDate.String(),
		}
		if c.PaidAt != nil {
			rec.PaidAt = c.PaidAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("write contribution %s: %w", c.ID, err)
		}
	}
	if err := cw.Flush(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(contributions), nil
}
