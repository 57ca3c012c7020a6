package store

import (
	"context"
	"database/sql"
	"errors"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
)

// LeaveBalance returns the remaining annual leave for the current year.
// Users without a credit row have a balance of zero.
func (s *Store) LeaveBalance(ctx context.Context, userID int64) (Balance, error) {
	var remaining int
	err := s.db.QueryRowContext(ctx, `
		SELECT annual_total - annual_used
		FROM leave_credits
		WHERE user_id = ? AND year = ?`,
		userID, s.currentYear(),
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{Remaining: 0}, nil
	}
	if err != nil {
		return Balance{}, errx.WrapStore(err)
	}
	return Balance{Remaining: remaining}, nil
}

// LeaveHistory returns the most recent leaves for the user, newest start
// date first. limit is clamped to [1, 100]; non-positive values fall back
// to the default of 20.
func (s *Store) LeaveHistory(ctx context.Context, userID int64, limit int) ([]Leave, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, days, status, COALESCE(reason, '')
		FROM leaves
		WHERE user_id = ?
		ORDER BY start_date DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()
	return scanLeaves(rows)
}

// PendingLeaves returns the user's PENDING leaves, newest start date first.
func (s *Store) PendingLeaves(ctx context.Context, userID int64) ([]Leave, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, days, status, COALESCE(reason, '')
		FROM leaves
		WHERE user_id = ? AND status = ?
		ORDER BY start_date DESC`,
		userID, StatusPending,
	)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()
	return scanLeaves(rows)
}

// Profile returns the user's profile row.
func (s *Store) Profile(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, address, contact_phone, email, employment_title, org_unit
		FROM users WHERE id = ?`,
		userID,
	).Scan(&p.ID, &p.Username, &p.FullName, &p.Address, &p.ContactPhone, &p.Email, &p.EmploymentTitle, &p.OrgUnit)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	if err != nil {
		return Profile{}, errx.WrapStore(err)
	}
	return p, nil
}

// AuditTrail returns the audit records for a user in append order.
func (s *Store) AuditTrail(ctx context.Context, userID int64) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, action, details
		FROM audit_log
		WHERE user_id = ?
		ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var r AuditRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Action, &r.Details); err != nil {
			return nil, errx.WrapStore(err)
		}
		out = append(out, r)
	}
	return out, errx.WrapStore(rows.Err())
}

func scanLeaves(rows *sql.Rows) ([]Leave, error) {
	var out []Leave
	for rows.Next() {
		var l Leave
		if err := rows.Scan(&l.ID, &l.StartDate, &l.EndDate, &l.Days, &l.Status, &l.Reason); err != nil {
			return nil, errx.WrapStore(err)
		}
		out = append(out, l)
	}
	return out, errx.WrapStore(rows.Err())
}
