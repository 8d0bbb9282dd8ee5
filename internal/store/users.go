package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vcert/internal/faults"
)

const userColumns = "id, telegram_id, username, first_name, last_name, role, is_blocked, created_at"

// UpsertUser records a user on first contact and refreshes their profile
// fields on subsequent contacts. Role and blocked flag are never touched
// here; those change only through explicit operations.
func (s *Store) UpsertUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*User, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, role, is_blocked, created_at)
		VALUES (?, ?, ?, ?, 'user', 0, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name`
	if _, err := s.execWithRetry(ctx, query, telegramID, nullableString(username), firstName, nullableString(lastName), now); err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "upsert_user", "write user record", err)
	}
	return s.UserByTelegramID(ctx, telegramID)
}

// UserByTelegramID fetches a user by their chat identity.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE telegram_id = ?", telegramID)
	return scanUser(row)
}

// UserByID fetches a user by internal id.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// SetRole updates a user's persisted role.
func (s *Store) SetRole(ctx context.Context, telegramID int64, role Role) error {
	ctx = ensureContext(ctx)
	if _, ok := roleSet[role]; !ok {
		return faults.Wrap(faults.ErrValidation, "store", "set_role", fmt.Sprintf("unknown role %q", role), nil)
	}
	res, err := s.execWithRetry(ctx, "UPDATE users SET role = ? WHERE telegram_id = ?", string(role), telegramID)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "store", "set_role", "update role", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "store", "set_role", "rows affected", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "set_role", fmt.Sprintf("user %d not found", telegramID), nil)
	}
	return nil
}

// SetBlocked toggles the blocked flag for a user.
func (s *Store) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	ctx = ensureContext(ctx)
	flag := 0
	if blocked {
		flag = 1
	}
	res, err := s.execWithRetry(ctx, "UPDATE users SET is_blocked = ? WHERE telegram_id = ?", flag, telegramID)
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "store", "set_blocked", "update blocked flag", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return faults.Wrap(faults.ErrDependency, "store", "set_blocked", "rows affected", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "set_blocked", fmt.Sprintf("user %d not found", telegramID), nil)
	}
	return nil
}

// UsersByRole lists users holding the given persisted role, oldest first.
func (s *Store) UsersByRole(ctx context.Context, role Role) ([]*User, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY created_at ASC", string(role))
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "users_by_role", "query users", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// AllUsers lists every known user, oldest first.
func (s *Store) AllUsers(ctx context.Context) ([]*User, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "all_users", "query users", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// UserCounts aggregates user totals for the statistics commands.
func (s *Store) UserCounts(ctx context.Context) (UserCounts, error) {
	ctx = ensureContext(ctx)
	var counts UserCounts
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1),
		       COALESCE(SUM(CASE WHEN role = 'operator' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_blocked = 1 THEN 1 ELSE 0 END), 0)
		FROM users`)
	if err := row.Scan(&counts.Total, &counts.Operators, &counts.Blocked); err != nil {
		return UserCounts{}, faults.Wrap(faults.ErrDependency, "store", "user_counts", "scan counts", err)
	}
	return counts, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		user      User
		username  sql.NullString
		lastName  sql.NullString
		role      string
		blocked   int
		createdAt string
	)
	err := row.Scan(&user.ID, &user.TelegramID, &username, &user.FirstName, &lastName, &role, &blocked, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "scan_user", "user not found", nil)
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "scan_user", "scan user row", err)
	}
	fillUser(&user, username, lastName, role, blocked, createdAt)
	return &user, nil
}

func collectUsers(rows *sql.Rows) ([]*User, error) {
	var users []*User
	for rows.Next() {
		var (
			user      User
			username  sql.NullString
			lastName  sql.NullString
			role      string
			blocked   int
			createdAt string
		)
		if err := rows.Scan(&user.ID, &user.TelegramID, &username, &user.FirstName, &lastName, &role, &blocked, &createdAt); err != nil {
			return nil, faults.Wrap(faults.ErrDependency, "store", "collect_users", "scan user row", err)
		}
		fillUser(&user, username, lastName, role, blocked, createdAt)
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Wrap(faults.ErrDependency, "store", "collect_users", "iterate user rows", err)
	}
	return users, nil
}

func fillUser(user *User, username, lastName sql.NullString, role string, blocked int, createdAt string) {
	user.Username = username.String
	user.LastName = lastName.String
	user.Role = Role(role)
	user.IsBlocked = blocked != 0
	if t, err := parseTimeString(createdAt); err == nil {
		user.CreatedAt = t
	}
}
