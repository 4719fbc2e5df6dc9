package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamfin/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

// SQLiteRepository implements Store on top of database/sql.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	inTx    bool
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil && !r.inTx {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txRepo := &SQLiteRepository{db: r.db, queries: r.queries.WithTx(tx), inTx: true}
	if err := fn(ctx, txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v", core.ErrNotFound, what, id)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func deleted(n int64, err error, what string, id uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", core.ErrNotFound, what, id)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timestampLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		slog.Warn("Invalid timestamp in database", "value", s, "error", err)
	}
	return t
}

func parseDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		slog.Warn("Invalid date in database", "value", s, "error", err)
	}
	return d
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		slog.Warn("Invalid uuid in database", "value", s, "error", err)
	}
	return id
}

func money(minor int64, currency string) core.Money {
	return core.Money{Minor: minor, Currency: core.Currency(currency)}
}

// teams

func (r *SQLiteRepository) SaveTeam(ctx context.Context, t *core.Team) error {
	err := r.queries.UpsertTeam(ctx, Team{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Active:      t.Active,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	return nil
}

func teamFromRow(row Team) *core.Team {
	return &core.Team{
		ID:          parseID(row.ID),
		Name:        row.Name,
		Description: row.Description,
		Active:      row.Active,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
}

func (r *SQLiteRepository) GetTeam(ctx context.Context, id uuid.UUID) (*core.Team, error) {
	row, err := r.queries.GetTeam(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "team", id)
	}
	return teamFromRow(row), nil
}

func (r *SQLiteRepository) ListTeams(ctx context.Context) ([]*core.Team, error) {
	rows, err := r.queries.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out := make([]*core.Team, len(rows))
	for i, row := range rows {
		out[i] = teamFromRow(row)
	}
	return out, nil
}

// users

func (r *SQLiteRepository) SaveUser(ctx context.Context, u *core.User) error {
	err := r.queries.UpsertUser(ctx, User{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func userFromRow(row User) *core.User {
	return &core.User{
		ID:           parseID(row.ID),
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Active:       row.Active,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	row, err := r.queries.GetUser(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]*core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*core.User, len(rows))
	for i, row := range rows {
		out[i] = userFromRow(row)
	}
	return out, nil
}

// memberships

func (r *SQLiteRepository) SaveTeamUser(ctx context.Context, tu *core.TeamUser) error {
	roles := make([]string, len(tu.Roles))
	for i, role := range tu.Roles {
		roles[i] = string(role)
	}
	err := r.queries.UpsertTeamUser(ctx, TeamUser{
		ID:       tu.ID.String(),
		TeamID:   tu.TeamID.String(),
		UserID:   tu.UserID.String(),
		Roles:    strings.Join(roles, ","),
		Active:   tu.Active,
		JoinedAt: formatTime(tu.JoinedAt),
	})
	if err != nil {
		return fmt.Errorf("save team user: %w", err)
	}
	return nil
}

func teamUserFromRow(row TeamUser) core.TeamUser {
	var roles []core.Role
	for _, r := range strings.Split(row.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, core.Role(r))
		}
	}
	return core.TeamUser{
		ID:       parseID(row.ID),
		TeamID:   parseID(row.TeamID),
		UserID:   parseID(row.UserID),
		Roles:    roles,
		Active:   row.Active,
		JoinedAt: parseTime(row.JoinedAt),
	}
}

func (r *SQLiteRepository) GetTeamUser(ctx context.Context, id uuid.UUID) (*core.TeamUser, error) {
	row, err := r.queries.GetTeamUser(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "team user", id)
	}
	tu := teamUserFromRow(row)
	return &tu, nil
}

func (r *SQLiteRepository) ListTeamUsers(ctx context.Context, teamID uuid.UUID) ([]core.TeamUser, error) {
	rows, err := r.queries.ListTeamUsers(ctx, teamID.String())
	if err != nil {
		return nil, fmt.Errorf("list team users: %w", err)
	}
	out := make([]core.TeamUser, len(rows))
	for i, row := range rows {
		out[i] = teamUserFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) ListActiveTeamUsers(ctx context.Context) ([]core.TeamUser, error) {
	rows, err := r.queries.ListActiveTeamUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active team users: %w", err)
	}
	out := make([]core.TeamUser, len(rows))
	for i, row := range rows {
		out[i] = teamUserFromRow(row)
	}
	return out, nil
}

// contribution types

func (r *SQLiteRepository) SaveType(ctx context.Context, t *core.ContributionType) error {
	var teamID sql.NullString
	if t.TeamID != uuid.Nil {
		teamID = sql.NullString{String: t.TeamID.String(), Valid: true}
	}
	err := r.queries.UpsertContributionType(ctx, ContributionType{
		ID:                t.ID.String(),
		TeamID:            teamID,
		Name:              t.Name,
		Description:       t.Description,
		Recurring:         t.Recurring,
		RecurrencePattern: string(t.Pattern),
		Active:            t.Active,
		CreatedAt:         formatTime(t.CreatedAt),
		UpdatedAt:         formatTime(t.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("save contribution type: %w", err)
	}
	return nil
}

func typeFromRow(row ContributionType) *core.ContributionType {
	t := &core.ContributionType{
		ID:          parseID(row.ID),
		Name:        row.Name,
		Description: row.Description,
		Recurring:   row.Recurring,
		Pattern:     core.RecurrencePattern(row.RecurrencePattern),
		Active:      row.Active,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
	if row.TeamID.Valid {
		t.TeamID = parseID(row.TeamID.String)
	}
	return t
}

func (r *SQLiteRepository) GetType(ctx context.Context, id uuid.UUID) (*core.ContributionType, error) {
	row, err := r.queries.GetContributionType(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "contribution type", id)
	}
	return typeFromRow(row), nil
}

func (r *SQLiteRepository) ListTypes(ctx context.Context) ([]*core.ContributionType, error) {
	rows, err := r.queries.ListContributionTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contribution types: %w", err)
	}
	out := make([]*core.ContributionType, len(rows))
	for i, row := range rows {
		out[i] = typeFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) ListActiveRecurringTypes(ctx context.Context) ([]*core.ContributionType, error) {
	rows, err := r.queries.ListActiveRecurringTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring contribution types: %w", err)
	}
	out := make([]*core.ContributionType, len(rows))
	for i, row := range rows {
		out[i] = typeFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.CountContributionsByType(ctx, id.String())
	if err != nil {
		return fmt.Errorf("count contributions of type: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: contribution type %s has %d contributions", core.ErrInUse, id, n)
	}
	affected, err := r.queries.DeleteContributionType(ctx, id.String())
	return deleted(affected, err, "contribution type", id)
}

// templates

func (r *SQLiteRepository) SaveTemplate(ctx context.Context, t *core.ContributionTemplate) error {
	err := r.queries.UpsertContributionTemplate(ctx, ContributionTemplate{
		ID:                t.ID.String(),
		TeamID:            t.TeamID.String(),
		Name:              t.Name,
		Description:       t.Description,
		AmountMinor:       t.Amount.Minor,
		Currency:          string(t.Amount.Currency),
		Recurring:         t.Recurring,
		RecurrencePattern: string(t.Pattern),
		DueDays:           int64(t.DueDays),
		Active:            t.Active,
		CreatedAt:         formatTime(t.CreatedAt),
		UpdatedAt:         formatTime(t.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("save contribution template: %w", err)
	}
	return nil
}

func templateFromRow(row ContributionTemplate) *core.ContributionTemplate {
	return &core.ContributionTemplate{
		ID:          parseID(row.ID),
		TeamID:      parseID(row.TeamID),
		Name:        row.Name,
		Description: row.Description,
		Amount:      money(row.AmountMinor, row.Currency),
		Recurring:   row.Recurring,
		Pattern:     core.RecurrencePattern(row.RecurrencePattern),
		DueDays:     int(row.DueDays),
		Active:      row.Active,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*core.ContributionTemplate, error) {
	row, err := r.queries.GetContributionTemplate(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "contribution template", id)
	}
	return templateFromRow(row), nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, teamID uuid.UUID) ([]*core.ContributionTemplate, error) {
	rows, err := r.queries.ListContributionTemplates(ctx, teamID.String())
	if err != nil {
		return nil, fmt.Errorf("list contribution templates: %w", err)
	}
	out := make([]*core.ContributionTemplate, len(rows))
	for i, row := range rows {
		out[i] = templateFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.DeleteContributionTemplate(ctx, id.String())
	return deleted(n, err, "contribution template", id)
}

// contributions

func (r *SQLiteRepository) SaveContribution(ctx context.Context, c *core.Contribution) error {
	var paidAt sql.NullString
	if c.PaidAt != nil {
		paidAt = sql.NullString{String: formatTime(*c.PaidAt), Valid: true}
	}
	err := r.queries.UpsertContribution(ctx, Contribution{
		ID:          c.ID.String(),
		TeamUserID:  c.TeamUserID.String(),
		TypeID:      c.TypeID.String(),
		Description: c.Description,
		AmountMinor: c.Amount.Minor,
		Currency:    string(c.Amount.Currency),
		DueDate:     c.DueDate.String(),
		PaidAt:      paidAt,
		Active:      c.Active,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return fmt.Errorf("%w: team user or contribution type of %s", core.ErrNotFound, c.ID)
		}
		return fmt.Errorf("save contribution: %w", err)
	}
	return nil
}

func contributionFromRow(row Contribution) *core.Contribution {
	c := &core.Contribution{
		ID:          parseID(row.ID),
		TeamUserID:  parseID(row.TeamUserID),
		TypeID:      parseID(row.TypeID),
		Description: row.Description,
		Amount:      money(row.AmountMinor, row.Currency),
		DueDate:     parseDate(row.DueDate),
		Active:      row.Active,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
	if row.PaidAt.Valid {
		paidAt := parseTime(row.PaidAt.String)
		c.PaidAt = &paidAt
	}
	return c
}

func (r *SQLiteRepository) GetContribution(ctx context.Context, id uuid.UUID) (*core.Contribution, error) {
	row, err := r.queries.GetContribution(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "contribution", id)
	}
	return contributionFromRow(row), nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, f ContributionFilter) ([]*core.Contribution, error) {
	arg := ListContributionsParams{UnpaidOnly: f.UnpaidOnly}
	if f.TeamID != uuid.Nil {
		arg.TeamID = f.TeamID.String()
	}
	if f.TeamUserID != uuid.Nil {
		arg.TeamUserID = f.TeamUserID.String()
	}
	if f.TypeID != uuid.Nil {
		arg.TypeID = f.TypeID.String()
	}
	if !f.OverdueOn.IsZero() {
		arg.DueBefore = f.OverdueOn.String()
	}
	rows, err := r.queries.ListContributions(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	out := make([]*core.Contribution, len(rows))
	for i, row := range rows {
		out[i] = contributionFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) LatestContribution(ctx context.Context, teamUserID, typeID uuid.UUID) (*core.Contribution, error) {
	row, err := r.queries.GetLatestContribution(ctx, teamUserID.String(), typeID.String())
	if err != nil {
		return nil, notFound(err, "latest contribution for member", teamUserID)
	}
	return contributionFromRow(row), nil
}

func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.DeleteContribution(ctx, id.String())
	return deleted(n, err, "contribution", id)
}

// payments

func (r *SQLiteRepository) SavePayment(ctx context.Context, p *core.ContributionPayment) error {
	err := r.queries.UpsertPayment(ctx, ContributionPayment{
		ID:             p.ID.String(),
		ContributionID: p.ContributionID.String(),
		AmountMinor:    p.Amount.Minor,
		Currency:       string(p.Amount.Currency),
		Method:         string(p.Method),
		Reference:      p.Reference,
		Notes:          p.Notes,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	return nil
}

func paymentFromRow(row ContributionPayment) core.ContributionPayment {
	return core.ContributionPayment{
		ID:             parseID(row.ID),
		ContributionID: parseID(row.ContributionID),
		Amount:         money(row.AmountMinor, row.Currency),
		Method:         core.PaymentMethod(row.Method),
		Reference:      row.Reference,
		Notes:          row.Notes,
		CreatedAt:      parseTime(row.CreatedAt),
		UpdatedAt:      parseTime(row.UpdatedAt),
	}
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id uuid.UUID) (*core.ContributionPayment, error) {
	row, err := r.queries.GetPayment(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "payment", id)
	}
	p := paymentFromRow(row)
	return &p, nil
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, contributionID uuid.UUID) ([]core.ContributionPayment, error) {
	rows, err := r.queries.ListPayments(ctx, contributionID.String())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.ContributionPayment, len(rows))
	for i, row := range rows {
		out[i] = paymentFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	n, err := r.queries.DeletePayment(ctx, id.String())
	return deleted(n, err, "payment", id)
}
