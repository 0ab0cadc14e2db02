package pgsnapshot

import (
	"context"

	"github.com/BearBump/CargoBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) Load(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return snap, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var currentUserID *string
	var lang, theme string
	err = tx.QueryRow(ctx, `SELECT current_user_id, lang, theme FROM session_state WHERE id = 1`).
		Scan(&currentUserID, &lang, &theme)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return snap, errors.Wrap(err, "select session state")
	}
	snap.Language = models.Language(lang)
	snap.Theme = models.Theme(theme)

	rows, err := tx.Query(ctx, `
SELECT id, external_id, phone, name, role, total_kg, total_spent, created_at
FROM users
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return snap, errors.Wrap(err, "select users")
	}
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Phone, &u.Name, &role, &u.TotalKg, &u.TotalSpent, &u.CreatedAt); err != nil {
			rows.Close()
			return snap, errors.Wrap(err, "scan user")
		}
		u.Role = models.UserRole(role)
		if u.Role != models.RoleAdmin {
			u.Role = models.RoleUser
		}
		snap.Users = append(snap.Users, &u)
	}
	rows.Close()
	if rows.Err() != nil {
		return snap, errors.Wrap(rows.Err(), "rows")
	}

	rows, err = tx.Query(ctx, `
SELECT id, user_id, track_number, weight, price, status, payment_status, created_at, updated_at
FROM shipments
ORDER BY position ASC
`)
	if err != nil {
		return snap, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()
	for rows.Next() {
		var sh models.Shipment
		var status, payment string
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.TrackNumber, &sh.Weight, &sh.Price,
			&status, &payment, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return snap, errors.Wrap(err, "scan shipment")
		}
		sh.Status = models.TrackStatus(status)
		sh.PaymentStatus = models.PaymentStatus(payment)
		// Строки с неизвестными статусами считаем отсутствующими.
		if !sh.Status.Valid() || !sh.PaymentStatus.Valid() {
			continue
		}
		snap.Shipments = append(snap.Shipments, &sh)
	}
	if rows.Err() != nil {
		return snap, errors.Wrap(rows.Err(), "rows")
	}

	if currentUserID != nil {
		if u := snap.FindUser(*currentUserID); u != nil {
			c := *u
			snap.User = &c
		}
	}
	snap.Normalize()
	return snap, nil
}

// Save replaces every row in one transaction.
func (s *Storage) Save(ctx context.Context, snap models.Snapshot) error {
	snap.Normalize()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM shipments`); err != nil {
		return errors.Wrap(err, "clear shipments")
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users`); err != nil {
		return errors.Wrap(err, "clear users")
	}

	for _, u := range usersToSave(snap) {
		_, err := tx.Exec(ctx, `
INSERT INTO users (id, external_id, phone, name, role, total_kg, total_spent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`, u.ID, u.ExternalID, u.Phone, u.Name, string(u.Role), u.TotalKg, u.TotalSpent, u.CreatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "insert user")
		}
	}

	for i, sh := range snap.Shipments {
		_, err := tx.Exec(ctx, `
INSERT INTO shipments (
  id, position, user_id, track_number, weight, price, status, payment_status, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, sh.ID, i, sh.UserID, sh.TrackNumber, sh.Weight, sh.Price,
			string(sh.Status), string(sh.PaymentStatus), sh.CreatedAt.UTC(), sh.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "insert shipment")
		}
	}

	var currentUserID *string
	if snap.User != nil {
		id := snap.User.ID
		currentUserID = &id
	}
	_, err = tx.Exec(ctx, `
INSERT INTO session_state (id, current_user_id, lang, theme)
VALUES (1, $1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
  current_user_id = EXCLUDED.current_user_id,
  lang = EXCLUDED.lang,
  theme = EXCLUDED.theme
`, currentUserID, string(snap.Language), string(snap.Theme))
	if err != nil {
		return errors.Wrap(err, "upsert session state")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// usersToSave возвращает каталог пользователей плюс текущего, если его там нет.
// Срез всегда новый.
func usersToSave(snap models.Snapshot) []*models.User {
	users := make([]*models.User, 0, len(snap.Users)+1)
	users = append(users, snap.Users...)
	if snap.User != nil && snap.FindUser(snap.User.ID) == nil {
		users = append(users, snap.User)
	}
	return users
}
