package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reservio/internal/domain"
	"reservio/internal/models"
)

// DefaultCategories seeds the category table on first start.
var DefaultCategories = []string{
	"Restaurants",
	"Cafes",
	"Bars",
	"Event halls",
	"Gyms",
	"Spa & wellness",
	"Hotels",
}

// EnsureDefaultCategories inserts the default business categories,
// reactivating any that were soft-deleted. Idempotent.
func (db *DB) EnsureDefaultCategories(ctx context.Context) error {
	for _, category := range DefaultCategories {
		var id string
		var active bool
		err := db.QueryRowContext(ctx,
			`SELECT id, active FROM business_categories WHERE category = ?`, category,
		).Scan(&id, &active)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = db.ExecContext(ctx,
				`INSERT INTO business_categories (id, category, active) VALUES (?, ?, 1)`,
				uuid.New().String(), category,
			)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", category, err)
			}
		case err != nil:
			return fmt.Errorf("check category %q: %w", category, err)
		case !active:
			if _, err := db.ExecContext(ctx,
				`UPDATE business_categories SET active = 1 WHERE id = ?`, id); err != nil {
				return fmt.Errorf("reactivate category %q: %w", category, err)
			}
		}
	}
	return nil
}

// GetCategory loads an active category by id.
func (db *DB) GetCategory(ctx context.Context, id string) (*models.BusinessCategory, error) {
	var c models.BusinessCategory
	err := db.QueryRowContext(ctx,
		`SELECT id, category, active FROM business_categories WHERE id = ? AND active = 1`, id,
	).Scan(&c.ID, &c.Category, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all active categories.
func (db *DB) ListCategories(ctx context.Context) ([]models.BusinessCategory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, category, active FROM business_categories WHERE active = 1 ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.BusinessCategory
	for rows.Next() {
		var c models.BusinessCategory
		if err := rows.Scan(&c.ID, &c.Category, &c.Active); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateBusiness inserts the business together with its seven closed
// day-schedule rows in one transaction. A business is never visible without
// a complete week.
func (db *DB) CreateBusiness(ctx context.Context, b *models.Business) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	b.Active = true
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO businesses (id, name, description, address, phone, email,
			owner_id, category_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.Address, b.Phone, b.Email,
		b.OwnerID, b.CategoryID, b.Active, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}

	for _, day := range models.ClosedWeek(b.ID) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO business_hours (id, business_id, weekday, is_closed, open_time, close_time, updated_at)
			VALUES (?, ?, ?, 1, NULL, NULL, ?)`,
			uuid.New().String(), b.ID, day.Weekday, now,
		)
		if err != nil {
			return fmt.Errorf("insert business hours for weekday %d: %w", day.Weekday, err)
		}
	}

	return tx.Commit()
}

// GetBusiness loads an active business by id.
func (db *DB) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	return scanBusiness(db.QueryRowContext(ctx, `
		SELECT id, name, description, address, phone, email,
		       owner_id, category_id, active, created_at, updated_at
		FROM businesses WHERE id = ? AND active = 1`, id))
}

// GetBusinessByOwner loads the active business owned by ownerID.
func (db *DB) GetBusinessByOwner(ctx context.Context, ownerID string) (*models.Business, error) {
	return scanBusiness(db.QueryRowContext(ctx, `
		SELECT id, name, description, address, phone, email,
		       owner_id, category_id, active, created_at, updated_at
		FROM businesses WHERE owner_id = ? AND active = 1 LIMIT 1`, ownerID))
}

// ListBusinesses returns active businesses, optionally filtered by category.
func (db *DB) ListBusinesses(ctx context.Context, categoryID string) ([]models.Business, error) {
	query := `
		SELECT id, name, description, address, phone, email,
		       owner_id, category_id, active, created_at, updated_at
		FROM businesses WHERE active = 1`
	args := []interface{}{}
	if categoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.Address, &b.Phone, &b.Email,
			&b.OwnerID, &b.CategoryID, &b.Active, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

// DeactivateBusiness soft-deletes a business. Existing reservations keep
// their history.
func (db *DB) DeactivateBusiness(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE businesses SET active = 0, updated_at = ? WHERE id = ? AND active = 1`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetWeeklySchedule returns the seven day-schedule rows of a business
// ordered by weekday.
func (db *DB) GetWeeklySchedule(ctx context.Context, businessID string) (models.WeeklySchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, business_id, weekday, is_closed, open_time, close_time
		FROM business_hours WHERE business_id = ? ORDER BY weekday`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var week models.WeeklySchedule
	for rows.Next() {
		var d models.DaySchedule
		var open, close sql.NullString
		if err := rows.Scan(&d.ID, &d.BusinessID, &d.Weekday, &d.IsClosed, &open, &close); err != nil {
			return nil, err
		}
		d.OpenTime = open.String
		d.CloseTime = close.String
		week = append(week, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(week) == 0 {
		return nil, domain.ErrNotFound
	}
	return week, nil
}

// ReplaceWeeklySchedule updates all seven day rows in one transaction. The
// caller validates the week first; closed days store NULL hours.
func (db *DB) ReplaceWeeklySchedule(ctx context.Context, businessID string, week models.WeeklySchedule) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, d := range week {
		var open, close interface{}
		if !d.IsClosed {
			open, close = d.OpenTime, d.CloseTime
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE business_hours
			SET is_closed = ?, open_time = ?, close_time = ?, updated_at = ?
			WHERE business_id = ? AND weekday = ?`,
			d.IsClosed, open, close, now, businessID, d.Weekday,
		)
		if err != nil {
			return fmt.Errorf("update weekday %d: %w", d.Weekday, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
	}

	return tx.Commit()
}

func scanBusiness(row *sql.Row) (*models.Business, error) {
	var b models.Business
	err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.Address, &b.Phone, &b.Email,
		&b.OwnerID, &b.CategoryID, &b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
