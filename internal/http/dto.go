package http

import (
	"time"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u *core.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Name: u.Name, Active: u.Active, CreatedAt: u.CreatedAt}
}

type teamDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTeamDTO(t *core.Team) teamDTO {
	return teamDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type memberDTO struct {
	ID       uuid.UUID   `json:"id"`
	TeamID   uuid.UUID   `json:"teamId"`
	UserID   uuid.UUID   `json:"userId"`
	Roles    []core.Role `json:"roles"`
	Active   bool        `json:"active"`
	JoinedAt time.Time   `json:"joinedAt"`
}

func toMemberDTO(m core.TeamUser) memberDTO {
	return memberDTO{ID: m.ID, TeamID: m.TeamID, UserID: m.UserID, Roles: m.Roles, Active: m.Active, JoinedAt: m.JoinedAt}
}

type typeDTO struct {
	ID          uuid.UUID              `json:"id"`
	TeamID      *uuid.UUID             `json:"teamId,omitempty"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Recurring   bool                   `json:"recurring"`
	Pattern     core.RecurrencePattern `json:"pattern,omitempty"`
	Active      bool                   `json:"active"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func toTypeDTO(t *core.ContributionType) typeDTO {
	dto := typeDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Recurring:   t.Recurring,
		Pattern:     t.Pattern,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.TeamID != uuid.Nil {
		teamID := t.TeamID
		dto.TeamID = &teamID
	}
	return dto
}

type templateDTO struct {
	ID              uuid.UUID              `json:"id"`
	TeamID          uuid.UUID              `json:"teamId"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Amount          int64                  `json:"amount"`
	Currency        core.Currency          `json:"currency"`
	FormattedAmount string                 `json:"formattedAmount"`
	Recurring       bool                   `json:"recurring"`
	Pattern         core.RecurrencePattern `json:"pattern,omitempty"`
	DueDays         int                    `json:"dueDays"`
	Active          bool                   `json:"active"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func toTemplateDTO(t *core.ContributionTemplate) templateDTO {
	return templateDTO{
		ID:              t.ID,
		TeamID:          t.TeamID,
		Name:            t.Name,
		Description:     t.Description,
		Amount:          t.Amount.Minor,
		Currency:        t.Amount.Currency,
		FormattedAmount: t.Amount.Format(),
		Recurring:       t.Recurring,
		Pattern:         t.Pattern,
		DueDays:         t.DueDays,
		Active:          t.Active,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type contributionDTO struct {
	ID              uuid.UUID     `json:"id"`
	TeamUserID      uuid.UUID     `json:"teamUserId"`
	TypeID          uuid.UUID     `json:"typeId"`
	Description     string        `json:"description"`
	Amount          int64         `json:"amount"`
	Currency        core.Currency `json:"currency"`
	FormattedAmount string        `json:"formattedAmount"`
	DueDate         core.Date     `json:"dueDate"`
	PaidAt          *time.Time    `json:"paidAt"`
	Active          bool          `json:"active"`
	IsPaid          bool          `json:"isPaid"`
	IsOverdue       bool          `json:"isOverdue"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func toContributionDTO(c *core.Contribution, now time.Time) contributionDTO {
	return contributionDTO{
		ID:              c.ID,
		TeamUserID:      c.TeamUserID,
		TypeID:          c.TypeID,
		Description:     c.Description,
		Amount:          c.Amount.Minor,
		Currency:        c.Amount.Currency,
		FormattedAmount: c.Amount.Format(),
		DueDate:         c.DueDate,
		PaidAt:          c.PaidAt,
		Active:          c.Active,
		IsPaid:          c.IsPaid(),
		IsOverdue:       c.IsOverdue(now),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toContributionDTOs(cs []*core.Contribution, now time.Time) []contributionDTO {
	out := make([]contributionDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContributionDTO(c, now))
	}
	return out
}

type paymentDTO struct {
	ID              uuid.UUID          `json:"id"`
	ContributionID  uuid.UUID          `json:"contributionId"`
	Amount          int64              `json:"amount"`
	Currency        core.Currency      `json:"currency"`
	FormattedAmount string             `json:"formattedAmount"`
	Method          core.PaymentMethod `json:"method,omitempty"`
	Reference       string             `json:"reference,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func toPaymentDTO(p *core.ContributionPayment) paymentDTO {
	return paymentDTO{
		ID:              p.ID,
		ContributionID:  p.ContributionID,
		Amount:          p.Amount.Minor,
		Currency:        p.Amount.Currency,
		FormattedAmount: p.Amount.Format(),
		Method:          p.Method,
		Reference:       p.Reference,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type summaryDTO struct {
	Total       int64         `json:"total"`
	Outstanding int64         `json:"outstanding"`
	Currency    core.Currency `json:"currency"`
	Settled     bool          `json:"settled"`
}

func toSummaryDTO(s core.PaymentSummary) summaryDTO {
	return summaryDTO{
		Total:       s.Total.Minor,
		Outstanding: s.Outstanding.Minor,
		Currency:    s.Total.Currency,
		Settled:     s.Settled,
	}
}

type paymentResultDTO struct {
	Payment      *paymentDTO     `json:"payment,omitempty"`
	Contribution contributionDTO `json:"contribution"`
	Summary      summaryDTO      `json:"summary"`
}

func toPaymentResultDTO(r services.PaymentResult, now time.Time) paymentResultDTO {
	out := paymentResultDTO{
		Contribution: toContributionDTO(r.Contribution, now),
		Summary:      toSummaryDTO(r.Summary),
	}
	if r.Payment != nil {
		p := toPaymentDTO(r.Payment)
		out.Payment = &p
	}
	return out
}

type balanceDTO struct {
	Currency    core.Currency `json:"currency"`
	Due         int64         `json:"due"`
	Paid        int64         `json:"paid"`
	Outstanding int64         `json:"outstanding"`
	Formatted   string        `json:"formattedOutstanding"`
}

func toBalanceDTO(b services.Balance) balanceDTO {
	return balanceDTO{
		Currency:    b.Currency,
		Due:         b.Due.Minor,
		Paid:        b.Paid.Minor,
		Outstanding: b.Outstanding.Minor,
		Formatted:   b.Outstanding.Format(),
	}
}

type memberBalanceDTO struct {
	TeamUserID uuid.UUID `json:"teamUserId"`
	UserID     uuid.UUID `json:"userId"`
	Name       string    `json:"name"`
	balanceDTO
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
}

type reportDTO struct {
	TeamID       uuid.UUID          `json:"teamId"`
	TeamName     string             `json:"teamName"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	Totals       []balanceDTO       `json:"totals"`
	PaidCount    int                `json:"paidCount"`
	OpenCount    int                `json:"openCount"`
	OverdueCount int                `json:"overdueCount"`
	Members      []memberBalanceDTO `json:"members"`
}

func toReportDTO(r services.TeamReport) reportDTO {
	out := reportDTO{
		TeamID:       r.TeamID,
		TeamName:     r.TeamName,
		GeneratedAt:  r.GeneratedAt,
		Totals:       make([]balanceDTO, 0, len(r.Totals)),
		PaidCount:    r.PaidCount,
		OpenCount:    r.OpenCount,
		OverdueCount: r.OverdueCount,
		Members:      make([]memberBalanceDTO, 0, len(r.Members)),
	}
	for _, b := range r.Totals {
		out.Totals = append(out.Totals, toBalanceDTO(b))
	}
	for _, m := range r.Members {
		out.Members = append(out.Members, memberBalanceDTO{
			TeamUserID: m.TeamUserID,
			UserID:     m.UserID,
			Name:       m.Name,
			balanceDTO: toBalanceDTO(m.Balance),
			Open:       m.Open,
			Overdue:    m.Overdue,
		})
	}
	return out
}
