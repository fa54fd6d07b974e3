package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/telehealth-api/internal/model"
	"github.com/carelink/telehealth-api/internal/repository"
)

type availabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, availability *model.Availability) error {
	query := `
		INSERT INTO availabilities (
			id, doctor_id, day_of_week, is_recurring, specific_date,
			start_time, end_time, interval_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	availability.ID = uuid.New()
	availability.CreatedAt = time.Now()
	availability.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		availability.ID,
		availability.DoctorID,
		availability.DayOfWeek,
		availability.IsRecurring,
		availability.SpecificDate,
		availability.StartTime,
		availability.EndTime,
		availability.IntervalMinutes,
		availability.CreatedAt,
		availability.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	query := `
		SELECT id, doctor_id, day_of_week, is_recurring, specific_date,
			   start_time, end_time, interval_minutes, created_at, updated_at
		FROM availabilities
		WHERE id = $1
	`
	var availability model.Availability
	err := r.db.GetContext(ctx, &availability, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("availability not found")
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return &availability, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM availabilities
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("availability not found")
	}

	return nil
}

func (r *availabilityRepository) List(ctx context.Context, doctorID uuid.UUID) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, day_of_week, is_recurring, specific_date,
			   start_time, end_time, interval_minutes, created_at, updated_at
		FROM availabilities
		WHERE doctor_id = $1
		ORDER BY day_of_week ASC, start_time ASC
	`
	var availabilities []*model.Availability
	err := r.db.SelectContext(ctx, &availabilities, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities: %w", err)
	}
	return availabilities, nil
}

// ListForDate fetches the rows that could apply to one concrete date: one-off
// rules for the exact date plus recurring rules for its weekday. Precedence
// between the two is the resolver's concern, not the query's.
func (r *availabilityRepository) ListForDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Availability, error) {
	query := `
		SELECT id, doctor_id, day_of_week, is_recurring, specific_date,
			   start_time, end_time, interval_minutes, created_at, updated_at
		FROM availabilities
		WHERE doctor_id = $1
		AND (
			(is_recurring AND day_of_week = $2)
			OR (NOT is_recurring AND specific_date = $3)
		)
		ORDER BY start_time ASC
	`
	day := date.UTC()
	dayOfWeek := int(day.Weekday())
	dateOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	var availabilities []*model.Availability
	err := r.db.SelectContext(ctx, &availabilities, query, doctorID, dayOfWeek, dateOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list availabilities for date: %w", err)
	}
	return availabilities, nil
}
