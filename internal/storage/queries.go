package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row models. Identifiers are UUID text, dates YYYY-MM-DD and timestamps
// RFC 3339 in UTC.
type (
	Team struct {
		ID          string
		Name        string
		Description string
		Active      bool
		CreatedAt   string
		UpdatedAt   string
	}

	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		Active       bool
		CreatedAt    string
		UpdatedAt    string
	}

	TeamUser struct {
		ID       string
		TeamID   string
		UserID   string
		Roles    string
		Active   bool
		JoinedAt string
	}

	ContributionType struct {
		ID                string
		TeamID            sql.NullString
		Name              string
		Description       string
		Recurring         bool
		RecurrencePattern string
		Active            bool
		CreatedAt         string
		UpdatedAt         string
	}

	ContributionTemplate struct {
		ID                string
		TeamID            string
		Name              string
		Description       string
		AmountMinor       int64
		Currency          string
		Recurring         bool
		RecurrencePattern string
		DueDays           int64
		Active            bool
		CreatedAt         string
		UpdatedAt         string
	}

	Contribution struct {
		ID          string
		TeamUserID  string
		TypeID      string
		Description string
		AmountMinor int64
		Currency    string
		DueDate     string
		PaidAt      sql.NullString
		Active      bool
		CreatedAt   string
		UpdatedAt   string
	}

	ContributionPayment struct {
		ID             string
		ContributionID string
		AmountMinor    int64
		Currency       string
		Method         string
		Reference      string
		Notes          string
		CreatedAt      string
		UpdatedAt      string
	}
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, err error, scan func(scanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// teams

const upsertTeam = `INSERT INTO teams (id, name, description, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
  active = excluded.active, updated_at = excluded.updated_at`

func (q *Queries) UpsertTeam(ctx context.Context, t Team) error {
	_, err := q.db.ExecContext(ctx, upsertTeam, t.ID, t.Name, t.Description, t.Active, t.CreatedAt, t.UpdatedAt)
	return err
}

const selectTeam = `SELECT id, name, description, active, created_at, updated_at FROM teams`

func scanTeam(s scanner) (Team, error) {
	var t Team
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) GetTeam(ctx context.Context, id string) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, selectTeam+` WHERE id = ?`, id))
}

func (q *Queries) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, selectTeam+` ORDER BY name`)
	return collect(rows, err, scanTeam)
}

// users

const upsertUser = `INSERT INTO users (id, email, name, password_hash, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name,
  password_hash = excluded.password_hash, active = excluded.active, updated_at = excluded.updated_at`

func (q *Queries) UpsertUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, upsertUser, u.ID, u.Email, u.Name, u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt)
	return err
}

const selectUser = `SELECT id, email, name, password_hash, active, created_at, updated_at FROM users`

func scanUser(s scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, selectUser+` ORDER BY name`)
	return collect(rows, err, scanUser)
}

// team users

const upsertTeamUser = `INSERT INTO team_users (id, team_id, user_id, roles, active, joined_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET roles = excluded.roles, active = excluded.active`

func (q *Queries) UpsertTeamUser(ctx context.Context, tu TeamUser) error {
	_, err := q.db.ExecContext(ctx, upsertTeamUser, tu.ID, tu.TeamID, tu.UserID, tu.Roles, tu.Active, tu.JoinedAt)
	return err
}

const selectTeamUser = `SELECT tu.id, tu.team_id, tu.user_id, tu.roles, tu.active, tu.joined_at FROM team_users tu`

func scanTeamUser(s scanner) (TeamUser, error) {
	var tu TeamUser
	err := s.Scan(&tu.ID, &tu.TeamID, &tu.UserID, &tu.Roles, &tu.Active, &tu.JoinedAt)
	return tu, err
}

func (q *Queries) GetTeamUser(ctx context.Context, id string) (TeamUser, error) {
	return scanTeamUser(q.db.QueryRowContext(ctx, selectTeamUser+` WHERE tu.id = ?`, id))
}

func (q *Queries) ListTeamUsers(ctx context.Context, teamID string) ([]TeamUser, error) {
	rows, err := q.db.QueryContext(ctx, selectTeamUser+` WHERE tu.team_id = ? ORDER BY tu.joined_at, tu.id`, teamID)
	return collect(rows, err, scanTeamUser)
}

func (q *Queries) ListActiveTeamUsers(ctx context.Context) ([]TeamUser, error) {
	rows, err := q.db.QueryContext(ctx, selectTeamUser+`
JOIN teams t ON t.id = tu.team_id
WHERE tu.active = 1 AND t.active = 1
ORDER BY tu.team_id, tu.joined_at, tu.id`)
	return collect(rows, err, scanTeamUser)
}

// contribution types

const upsertContributionType = `INSERT INTO contribution_types
  (id, team_id, name, description, recurring, recurrence_pattern, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET team_id = excluded.team_id, name = excluded.name, description = excluded.description,
  recurring = excluded.recurring, recurrence_pattern = excluded.recurrence_pattern,
  active = excluded.active, updated_at = excluded.updated_at`

func (q *Queries) UpsertContributionType(ctx context.Context, t ContributionType) error {
	_, err := q.db.ExecContext(ctx, upsertContributionType,
		t.ID, t.TeamID, t.Name, t.Description, t.Recurring, t.RecurrencePattern, t.Active, t.CreatedAt, t.UpdatedAt)
	return err
}

const selectContributionType = `SELECT id, team_id, name, description, recurring, recurrence_pattern, active, created_at, updated_at
FROM contribution_types`

func scanContributionType(s scanner) (ContributionType, error) {
	var t ContributionType
	err := s.Scan(&t.ID, &t.TeamID, &t.Name, &t.Description, &t.Recurring, &t.RecurrencePattern, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) GetContributionType(ctx context.Context, id string) (ContributionType, error) {
	return scanContributionType(q.db.QueryRowContext(ctx, selectContributionType+` WHERE id = ?`, id))
}

func (q *Queries) ListContributionTypes(ctx context.Context) ([]ContributionType, error) {
	rows, err := q.db.QueryContext(ctx, selectContributionType+` ORDER BY name, created_at`)
	return collect(rows, err, scanContributionType)
}

func (q *Queries) ListActiveRecurringTypes(ctx context.Context) ([]ContributionType, error) {
	rows, err := q.db.QueryContext(ctx, selectContributionType+` WHERE active = 1 AND recurring = 1 ORDER BY name, created_at`)
	return collect(rows, err, scanContributionType)
}

func (q *Queries) CountContributionsByType(ctx context.Context, typeID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contributions WHERE type_id = ?`, typeID).Scan(&n)
	return n, err
}

func (q *Queries) DeleteContributionType(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contribution_types WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// contribution templates

const upsertTemplate = `INSERT INTO contribution_templates
  (id, team_id, name, description, amount_minor, currency, recurring, recurrence_pattern,
   due_days, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
  amount_minor = excluded.amount_minor, currency = excluded.currency,
  recurring = excluded.recurring, recurrence_pattern = excluded.recurrence_pattern,
  due_days = excluded.due_days, active = excluded.active, updated_at = excluded.updated_at`

func (q *Queries) UpsertContributionTemplate(ctx context.Context, t ContributionTemplate) error {
	_, err := q.db.ExecContext(ctx, upsertTemplate,
		t.ID, t.TeamID, t.Name, t.Description, t.AmountMinor, t.Currency, t.Recurring,
		t.RecurrencePattern, t.DueDays, t.Active, t.CreatedAt, t.UpdatedAt)
	return err
}

const selectTemplate = `SELECT id, team_id, name, description, amount_minor, currency, recurring,
  recurrence_pattern, due_days, active, created_at, updated_at
FROM contribution_templates`

func scanTemplate(s scanner) (ContributionTemplate, error) {
	var t ContributionTemplate
	err := s.Scan(&t.ID, &t.TeamID, &t.Name, &t.Description, &t.AmountMinor, &t.Currency, &t.Recurring,
		&t.RecurrencePattern, &t.DueDays, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (q *Queries) GetContributionTemplate(ctx context.Context, id string) (ContributionTemplate, error) {
	return scanTemplate(q.db.QueryRowContext(ctx, selectTemplate+` WHERE id = ?`, id))
}

func (q *Queries) ListContributionTemplates(ctx context.Context, teamID string) ([]ContributionTemplate, error) {
	rows, err := q.db.QueryContext(ctx, selectTemplate+` WHERE team_id = ? ORDER BY name, created_at`, teamID)
	return collect(rows, err, scanTemplate)
}

func (q *Queries) DeleteContributionTemplate(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contribution_templates WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// contributions

const upsertContribution = `INSERT INTO contributions
  (id, team_user_id, type_id, description, amount_minor, currency, due_date, paid_at,
   active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET description = excluded.description,
  amount_minor = excluded.amount_minor, currency = excluded.currency,
  due_date = excluded.due_date, paid_at = excluded.paid_at, active = excluded.active,
  updated_at = excluded.updated_at`

func (q *Queries) UpsertContribution(ctx context.Context, c Contribution) error {
	_, err := q.db.ExecContext(ctx, upsertContribution,
		c.ID, c.TeamUserID, c.TypeID, c.Description, c.AmountMinor, c.Currency, c.DueDate,
		c.PaidAt, c.Active, c.CreatedAt, c.UpdatedAt)
	return err
}

const selectContribution = `SELECT c.id, c.team_user_id, c.type_id, c.description, c.amount_minor,
  c.currency, c.due_date, c.paid_at, c.active, c.created_at, c.updated_at
FROM contributions c`

func scanContribution(s scanner) (Contribution, error) {
	var c Contribution
	err := s.Scan(&c.ID, &c.TeamUserID, &c.TypeID, &c.Description, &c.AmountMinor, &c.Currency,
		&c.DueDate, &c.PaidAt, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) GetContribution(ctx context.Context, id string) (Contribution, error) {
	return scanContribution(q.db.QueryRowContext(ctx, selectContribution+` WHERE c.id = ?`, id))
}

type ListContributionsParams struct {
	TeamID     string
	TeamUserID string
	TypeID     string
	UnpaidOnly bool
	DueBefore  string
}

func (q *Queries) ListContributions(ctx context.Context, arg ListContributionsParams) ([]Contribution, error) {
	var (
		where []string
		args  []interface{}
		query = selectContribution
	)
	if arg.TeamID != "" {
		query += ` JOIN team_users tu ON tu.id = c.team_user_id`
		where = append(where, `tu.team_id = ?`)
		args = append(args, arg.TeamID)
	}
	if arg.TeamUserID != "" {
		where = append(where, `c.team_user_id = ?`)
		args = append(args, arg.TeamUserID)
	}
	if arg.TypeID != "" {
		where = append(where, `c.type_id = ?`)
		args = append(args, arg.TypeID)
	}
	if arg.UnpaidOnly || arg.DueBefore != "" {
		where = append(where, `c.paid_at IS NULL`)
	}
	if arg.DueBefore != "" {
		where = append(where, `c.due_date < ?`)
		args = append(args, arg.DueBefore)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY c.due_date, c.created_at, c.id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	return collect(rows, err, scanContribution)
}

func (q *Queries) GetLatestContribution(ctx context.Context, teamUserID, typeID string) (Contribution, error) {
	return scanContribution(q.db.QueryRowContext(ctx, selectContribution+`
WHERE c.team_user_id = ? AND c.type_id = ?
ORDER BY c.due_date DESC, c.created_at DESC
LIMIT 1`, teamUserID, typeID))
}

func (q *Queries) DeleteContribution(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contributions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// payments

const upsertPayment = `INSERT INTO contribution_payments
  (id, contribution_id, amount_minor, currency, method, reference, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET amount_minor = excluded.amount_minor, currency = excluded.currency,
  method = excluded.method, reference = excluded.reference, notes = excluded.notes,
  updated_at = excluded.updated_at`

func (q *Queries) UpsertPayment(ctx context.Context, p ContributionPayment) error {
	_, err := q.db.ExecContext(ctx, upsertPayment,
		p.ID, p.ContributionID, p.AmountMinor, p.Currency, p.Method, p.Reference, p.Notes, p.CreatedAt, p.UpdatedAt)
	return err
}

const selectPayment = `SELECT id, contribution_id, amount_minor, currency, method, reference, notes, created_at, updated_at
FROM contribution_payments`

func scanPayment(s scanner) (ContributionPayment, error) {
	var p ContributionPayment
	err := s.Scan(&p.ID, &p.ContributionID, &p.AmountMinor, &p.Currency, &p.Method, &p.Reference, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (q *Queries) GetPayment(ctx context.Context, id string) (ContributionPayment, error) {
	return scanPayment(q.db.QueryRowContext(ctx, selectPayment+` WHERE id = ?`, id))
}

func (q *Queries) ListPayments(ctx context.Context, contributionID string) ([]ContributionPayment, error) {
	rows, err := q.db.QueryContext(ctx, selectPayment+` WHERE contribution_id = ? ORDER BY created_at, id`, contributionID)
	return collect(rows, err, scanPayment)
}

func (q *Queries) DeletePayment(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contribution_payments WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
