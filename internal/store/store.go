package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundry-reservation-backend/internal/engine"
	"laundry-reservation-backend/internal/model"
)

// ErrConflict is returned when a compare-and-update loses to a concurrent
// writer. Callers must refetch before retrying.
var ErrConflict = errors.New("concurrent modification")

// Store persists per-machine reservation records. Every multi-field write is
// a single compare-and-update keyed on the snapshot's version; joins use the
// append primitive so concurrent joins never clobber each other.
type Store interface {
	// Get returns a consistent snapshot of the machine's record. A machine
	// never written reads back as an empty record with version 0.
	Get(ctx context.Context, machine string) (engine.Record, error)
	// Save writes back a record derived from a Get snapshot. It fails with
	// ErrConflict when the stored version no longer matches the snapshot's.
	// An empty record deletes the row entirely.
	Save(ctx context.Context, rec engine.Record) error
	// AppendWaiter atomically appends one waiter to the machine's queue
	// tail and returns the stored entry with its assigned ID.
	AppendWaiter(ctx context.Context, machine string, w engine.Waiter) (engine.Waiter, error)
	// DB exposes the underlying handle for the subscription endpoints and
	// the push worker.
	DB() *gorm.DB
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Get(ctx context.Context, machine string) (engine.Record, error) {
	var row model.Reservation
	err := s.db.WithContext(ctx).First(&row, "machine = ?", machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Record{Machine: machine}, nil
	}
	if err != nil {
		return engine.Record{}, fmt.Errorf("failed to fetch reservation for %q: %w", machine, err)
	}

	var waiters []model.Waiter
	if err := s.db.WithContext(ctx).
		Where("machine = ?", machine).
		Order("slot ASC").
		Find(&waiters).Error; err != nil {
		return engine.Record{}, fmt.Errorf("failed to fetch queue for %q: %w", machine, err)
	}

	return toRecord(row, waiters), nil
}

func (s *gormStore) Save(ctx context.Context, rec engine.Record) error {
	if rec.Version == 0 && rec.Empty() {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rec.Empty() {
			res := tx.Where("machine = ? AND version = ?", rec.Machine, rec.Version).
				Delete(&model.Reservation{})
			if res.Error != nil {
				return fmt.Errorf("failed to delete reservation for %q: %w", rec.Machine, res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
			return clearQueue(tx, rec.Machine)
		}

		row := fromRecord(rec)
		if rec.Version == 0 {
			row.Version = 1
			// DoNothing + rows-affected makes the create race portable
			// across postgres and sqlite.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("failed to create reservation for %q: %w", rec.Machine, res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
		} else {
			res := tx.Model(&model.Reservation{}).
				Where("machine = ? AND version = ?", rec.Machine, rec.Version).
				Updates(map[string]any{
					"holder_name":        row.HolderName,
					"designation":        row.Designation,
					"comment":            row.Comment,
					"pin":                row.PIN,
					"start_at":           row.StartAt,
					"end_at":             row.EndAt,
					"timeout_alert_sent": row.TimeoutAlertSent,
					"last_free_at":       row.LastFreeAt,
					"version":            rec.Version + 1,
				})
			if res.Error != nil {
				return fmt.Errorf("failed to update reservation for %q: %w", rec.Machine, res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConflict
			}
		}

		if err := clearQueue(tx, rec.Machine); err != nil {
			return err
		}
		return writeQueue(tx, rec.Machine, rec.Queue)
	})
}

func (s *gormStore) AppendWaiter(ctx context.Context, machine string, w engine.Waiter) (engine.Waiter, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure a record row exists, then bump its version so an
		// in-flight Save from a pre-append snapshot loses its race
		// instead of silently dropping the new waiter.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Reservation{Machine: machine, Version: 0}).Error; err != nil {
			return fmt.Errorf("failed to ensure reservation row for %q: %w", machine, err)
		}
		if err := tx.Model(&model.Reservation{}).
			Where("machine = ?", machine).
			UpdateColumn("version", gorm.Expr("version + 1")).Error; err != nil {
			return fmt.Errorf("failed to bump version for %q: %w", machine, err)
		}

		var nextSlot int
		if err := tx.Model(&model.Waiter{}).
			Where("machine = ?", machine).
			Select("COALESCE(MAX(slot) + 1, 0)").
			Scan(&nextSlot).Error; err != nil {
			return fmt.Errorf("failed to compute queue tail for %q: %w", machine, err)
		}

		row := fromWaiter(machine, nextSlot, w)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to append waiter to %q: %w", machine, err)
		}
		return nil
	})
	if err != nil {
		return engine.Waiter{}, err
	}
	return w, nil
}

func clearQueue(tx *gorm.DB, machine string) error {
	if err := tx.Where("machine = ?", machine).Delete(&model.Waiter{}).Error; err != nil {
		return fmt.Errorf("failed to clear queue for %q: %w", machine, err)
	}
	return nil
}

func writeQueue(tx *gorm.DB, machine string, queue []engine.Waiter) error {
	if len(queue) == 0 {
		return nil
	}
	rows := make([]model.Waiter, len(queue))
	for i, w := range queue {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		rows[i] = fromWaiter(machine, i, w)
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write queue for %q: %w", machine, err)
	}
	return nil
}

func toRecord(row model.Reservation, waiters []model.Waiter) engine.Record {
	rec := engine.Record{
		Machine:    row.Machine,
		LastFreeAt: cloneTime(row.LastFreeAt),
		Version:    row.Version,
	}
	if row.HolderName != "" && row.StartAt != nil && row.EndAt != nil {
		rec.Occupant = &engine.Session{
			HolderName:       row.HolderName,
			Designation:      row.Designation,
			Comment:          row.Comment,
			PIN:              row.PIN,
			StartAt:          *row.StartAt,
			EndAt:            *row.EndAt,
			TimeoutAlertSent: row.TimeoutAlertSent,
		}
	}
	for _, w := range waiters {
		rec.Queue = append(rec.Queue, engine.Waiter{
			ID:           w.ID,
			Name:         w.Name,
			Designation:  w.Designation,
			Comment:      w.Comment,
			PIN:          w.PIN,
			Urgent:       w.Urgent,
			UrgentReason: w.UrgentReason,
			JoinedAt:     w.JoinedAt,
		})
	}
	return rec
}

func fromRecord(rec engine.Record) model.Reservation {
	row := model.Reservation{
		Machine:    rec.Machine,
		LastFreeAt: cloneTime(rec.LastFreeAt),
		Version:    rec.Version,
	}
	if rec.Occupant != nil {
		occ := rec.Occupant
		start, end := occ.StartAt, occ.EndAt
		row.HolderName = occ.HolderName
		row.Designation = occ.Designation
		row.Comment = occ.Comment
		row.PIN = occ.PIN
		row.StartAt = &start
		row.EndAt = &end
		row.TimeoutAlertSent = occ.TimeoutAlertSent
	}
	return row
}

func fromWaiter(machine string, slot int, w engine.Waiter) model.Waiter {
	return model.Waiter{
		ID:           w.ID,
		Machine:      machine,
		Slot:         slot,
		Name:         w.Name,
		Designation:  w.Designation,
		Comment:      w.Comment,
		PIN:          w.PIN,
		Urgent:       w.Urgent,
		UrgentReason: w.UrgentReason,
		JoinedAt:     w.JoinedAt,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
