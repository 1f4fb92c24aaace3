package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Repository manages the local offline queue rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns an outbox repository bound to the local store.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx appends a queue row inside the caller's transaction so the row
// commits atomically with the domain facts it describes.
func (r *Repository) InsertTx(tx *gorm.DB, entry *models.OutboxEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

// FetchPending returns up to limit PENDING rows of the given event type.
// Selection is newest-first, inherited from the source design; old rows can
// starve under sustained load (known, flagged).
func (r *Repository) FetchPending(ctx context.Context, eventType enums.OutboxEventType, limit int) ([]models.OutboxEntry, error) {
	var rows []models.OutboxEntry
	err := r.db.WithContext(ctx).
		Where("status = ? AND event_type = ?", enums.OutboxStatusPending, eventType).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// List returns queue rows newest-first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.OutboxStatus, limit int) ([]models.OutboxEntry, error) {
	q := r.db.WithContext(ctx).Model(&models.OutboxEntry{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.OutboxEntry
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// Get returns a single queue row.
func (r *Repository) Get(ctx context.Context, id int64) (*models.OutboxEntry, error) {
	var row models.OutboxEntry
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkAttempt bumps the attempt counter before a remote apply is tried, so a
// crash mid-apply is still visible in the row.
func (r *Repository) MarkAttempt(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": time.Now(),
		}).Error
}

// MarkSynced transitions the row to SYNCED and clears any previous error.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.OutboxStatusSynced,
			"last_error": nil,
		}).Error
}

// MarkFailed transitions the row to FAILED with the error message.
func (r *Repository) MarkFailed(ctx context.Context, id int64, applyErr error) error {
	msg := "unknown sync error"
	if applyErr != nil {
		msg = applyErr.Error()
	}
	return r.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.OutboxStatusFailed,
			"last_error": msg,
		}).Error
}

// Retry flips a FAILED row back to PENDING. Operator action only; there is
// no automatic backoff.
func (r *Repository) Retry(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Where("id = ? AND status = ?", id, enums.OutboxStatusFailed).
		Updates(map[string]any{
			"status":     enums.OutboxStatusPending,
			"last_error": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CleanupSynced deletes SYNCED rows older than the cutoff. The only deletion
// path the queue has; PENDING and FAILED rows are never dropped.
func (r *Repository) CleanupSynced(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OutboxStatusSynced, olderThan).
		Delete(&models.OutboxEntry{})
	return res.RowsAffected, res.Error
}

// CountByStatus reports queue depth per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.OutboxStatus]int64, error) {
	type row struct {
		Status enums.OutboxStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Select("status, count(*) as n").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OutboxStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
