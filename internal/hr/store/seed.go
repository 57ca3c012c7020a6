package store

import (
	"context"

	errx "github.com/hr-copilot-poc/server/internal/core/error"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
)

// SeedDemoData inserts a small set of employees with current-year leave
// credits so the service is exercisable out of the box. It is a no-op when
// users already exist.
func (s *Store) SeedDemoData(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return errx.WrapStore(err)
	}
	if n > 0 {
		return nil
	}

	users := []struct {
		username, fullName, title, orgUnit, email string
		total                                     int
	}{
		{"amal", "Amal Al-Harbi", "HR Specialist", "People Operations", "amal@example.com", 30},
		{"faisal", "Faisal Al-Qahtani", "Software Engineer", "Engineering", "faisal@example.com", 25},
		{"noura", "Noura Al-Otaibi", "Finance Analyst", "Finance", "noura@example.com", 25},
	}

	year := s.currentYear()
	for _, u := range users {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO users (username, full_name, employment_title, org_unit, email)
			VALUES (?, ?, ?, ?, ?)`,
			u.username, u.fullName, u.title, u.orgUnit, u.email,
		)
		if err != nil {
			return errx.WrapStore(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errx.WrapStore(err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO leave_credits (user_id, year, annual_total, annual_used)
			VALUES (?, ?, ?, 0)`,
			id, year, u.total,
		); err != nil {
			return errx.WrapStore(err)
		}
	}

	logx.Info().Int("users", len(users)).Int("year", year).Msg("seeded demo HR data")
	return nil
}
