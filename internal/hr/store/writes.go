package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// RaiseResult reports a successfully created leave request.
type RaiseResult struct {
	OK   bool `json:"ok"`
	Days int  `json:"days"`
}

// RaiseLeave creates a PENDING leave for the user after validating the
// request against the current-year credit and existing leaves. The balance
// is deducted at request time, not approval time. All checks and writes run
// inside one transaction, serialized per user, so concurrent requests cannot
// overcommit the balance.
func (s *Store) RaiseLeave(ctx context.Context, req LeaveRequest) (RaiseResult, error) {
	if req.EndDate.Before(req.StartDate) {
		return RaiseResult{}, errx.BusinessRule("end date must not be before start date")
	}
	days := req.Days()
	if days <= 0 {
		return RaiseResult{}, errx.BusinessRule("invalid number of days")
	}

	release := s.locks.acquire(req.UserID)
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}
	defer tx.Rollback()

	year := s.currentYear()
	var total, used int
	err = tx.QueryRowContext(ctx, `
		SELECT annual_total, annual_used FROM leave_credits
		WHERE user_id = ? AND year = ?`,
		req.UserID, year,
	).Scan(&total, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return RaiseResult{}, errx.BusinessRule("no leave credit record found for %d", year)
	}
	if err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}
	if used+days > total {
		return RaiseResult{}, errx.BusinessRule("not enough leave balance: %d day(s) requested, %d remaining", days, total-used)
	}

	start := req.StartDate.Format(DateFormat)
	end := req.EndDate.Format(DateFormat)

	// Inclusive ranges [s1,e1] and [s2,e2] overlap iff s1 <= e2 and s2 <= e1.
	// ISO dates compare correctly as text.
	var overlap int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM leaves
		WHERE user_id = ? AND status IN (?, ?)
		AND start_date <= ? AND end_date >= ?`,
		req.UserID, StatusPending, StatusApproved, end, start,
	).Scan(&overlap)
	if err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}
	if overlap > 0 {
		return RaiseResult{}, errx.BusinessRule("leave overlaps with an existing pending or approved leave")
	}

	var reason any
	if req.Reason != "" {
		reason = req.Reason
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO leaves (user_id, start_date, end_date, days, reason, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.UserID, start, end, days, reason, StatusPending,
	); err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leave_credits SET annual_used = annual_used + ?
		WHERE user_id = ? AND year = ?`,
		days, req.UserID, year,
	); err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}

	if err := s.audit(ctx, tx, req.UserID, ActionRaiseLeave, map[string]any{
		"days": days, "start": start, "end": end,
	}); err != nil {
		return RaiseResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return RaiseResult{}, errx.WrapStore(err)
	}

	logx.Info().Int64("user_id", req.UserID).Str("start", start).Str("end", end).Int("days", days).
		Msg("leave raised")
	return RaiseResult{OK: true, Days: days}, nil
}

// CancelLeave cancels a PENDING or APPROVED leave owned by the user and
// restores the used-days counter, floored at zero.
func (s *Store) CancelLeave(ctx context.Context, userID, leaveID int64) error {
	release := s.locks.acquire(userID)
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.WrapStore(err)
	}
	defer tx.Rollback()

	var status string
	var days int
	err = tx.QueryRowContext(ctx, `
		SELECT status, days FROM leaves WHERE id = ? AND user_id = ?`,
		leaveID, userID,
	).Scan(&status, &days)
	if errors.Is(err, sql.ErrNoRows) {
		return errx.BusinessRule("leave not found")
	}
	if err != nil {
		return errx.WrapStore(err)
	}
	if status != StatusPending && status != StatusApproved {
		return errx.BusinessRule("only pending or approved leaves can be cancelled")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leaves SET status = ? WHERE id = ? AND user_id = ?`,
		StatusCancelled, leaveID, userID,
	); err != nil {
		return errx.WrapStore(err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE leave_credits SET annual_used = MAX(annual_used - ?, 0)
		WHERE user_id = ? AND year = ?`,
		days, userID, s.currentYear(),
	); err != nil {
		return errx.WrapStore(err)
	}

	if err := s.audit(ctx, tx, userID, ActionCancelLeave, map[string]any{
		"leave_id": leaveID,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errx.WrapStore(err)
	}

	logx.Info().Int64("user_id", userID).Int64("leave_id", leaveID).Msg("leave cancelled")
	return nil
}

// EditProfile applies an allow-listed profile field change and returns the
// refreshed profile row.
func (s *Store) EditProfile(ctx context.Context, edit ProfileEdit) (Profile, error) {
	if !allowedProfileFields[edit.Field] {
		return Profile{}, errx.BusinessRule("field '%s' is not editable", edit.Field)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, errx.WrapStore(err)
	}
	defer tx.Rollback()

	// edit.Field passed the allow-list; it is the only identifier ever
	// interpolated.
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ? WHERE id = ?`, edit.Field),
		edit.Value, edit.UserID,
	)
	if err != nil {
		return Profile{}, errx.WrapStore(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Profile{}, ErrUserNotFound
	}

	if err := s.audit(ctx, tx, edit.UserID, ActionEditProfile, map[string]any{
		"field": edit.Field,
	}); err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, errx.WrapStore(err)
	}

	return s.Profile(ctx, edit.UserID)
}

func (s *Store) audit(ctx context.Context, tx *sql.Tx, userID int64, action string, details map[string]any) error {
	b, err := json.Marshal(details)
	if err != nil {
		return errx.WrapStore(err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (user_id, action, details) VALUES (?, ?, ?)`,
		userID, action, string(b),
	); err != nil {
		return errx.WrapStore(err)
	}
	return nil
}
