package event

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDeadLetterRepository implements DeadLetterRepository using GORM
type GormDeadLetterRepository struct {
	db *gorm.DB
}

// NewGormDeadLetterRepository creates a new GORM-based dead letter repository
func NewGormDeadLetterRepository(db *gorm.DB) *GormDeadLetterRepository {
	return &GormDeadLetterRepository{db: db}
}

// Save persists a dead letter entry
func (r *GormDeadLetterRepository) Save(ctx context.Context, entry *shared.DeadLetterEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID retrieves a single entry by ID
func (r *GormDeadLetterRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.DeadLetterEntry, error) {
	var entry shared.DeadLetterEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindDead retrieves dead entries with pagination, optionally filtered by
// consumer group. An empty group matches all groups.
func (r *GormDeadLetterRepository) FindDead(ctx context.Context, consumerGroup string, page, pageSize int) ([]*shared.DeadLetterEntry, int64, error) {
	var entries []*shared.DeadLetterEntry
	var total int64

	query := r.db.WithContext(ctx).
		Model(&shared.DeadLetterEntry{}).
		Where("status = ?", shared.DeadLetterStatusDead)
	if consumerGroup != "" {
		query = query.Where("consumer_group = ?", consumerGroup)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Update updates an existing entry
func (r *GormDeadLetterRepository) Update(ctx context.Context, entry *shared.DeadLetterEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(entry).Error
}

// CountByGroup returns the number of dead entries per consumer group
func (r *GormDeadLetterRepository) CountByGroup(ctx context.Context) (map[string]int64, error) {
	type groupCount struct {
		ConsumerGroup string
		Count         int64
	}

	var results []groupCount
	err := r.db.WithContext(ctx).
		Model(&shared.DeadLetterEntry{}).
		Select("consumer_group, count(*) as count").
		Where("status = ?", shared.DeadLetterStatusDead).
		Group("consumer_group").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, r := range results {
		counts[r.ConsumerGroup] = r.Count
	}
	return counts, nil
}

// DeleteResolvedOlderThan removes resolved entries older than the given time
func (r *GormDeadLetterRepository) DeleteResolvedOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND resolved_at < ?", shared.DeadLetterStatusResolved, before).
		Delete(&shared.DeadLetterEntry{})
	return result.RowsAffected, result.Error
}

// Ensure GormDeadLetterRepository implements DeadLetterRepository
var _ shared.DeadLetterRepository = (*GormDeadLetterRepository)(nil)
