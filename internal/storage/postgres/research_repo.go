package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/research"
	"github.com/joshu-sajeev/researchindex/internal/search"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResearchRepository struct {
	db *gorm.DB
}

func NewResearchRepository(db *gorm.DB) *ResearchRepository {
	return &ResearchRepository{db: db}
}

var (
	_ research.Repository   = (*ResearchRepository)(nil)
	_ worker.ResearchStore  = (*ResearchRepository)(nil)
	_ search.ResearchReader = (*ResearchRepository)(nil)
	_ search.PageSource     = (*ResearchRepository)(nil)
)

// Create inserts a research item with its detail row and enqueues an index
// job in the same transaction.
func (r *ResearchRepository) Create(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error) {
	var job *models.IndexJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.Detail != nil {
			item.Detail.SearchText = ""
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("create research: %w", err)
		}

		job = models.NewIndexJob(item.ID, reason)
		return NewIndexJobRepository(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Update overwrites the editable fields of an item and its detail row, then
// enqueues an index job. search_text is left to the processor.
func (r *ResearchRepository) Update(ctx context.Context, item *models.Research, reason string) (*models.IndexJob, error) {
	var job *models.IndexJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Research{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{
				"title":            item.Title,
				"author":           item.Author,
				"access_level":     item.AccessLevel,
				"publication_date": item.PublicationDate,
			})
		if res.Error != nil {
			return fmt.Errorf("update research %d: %w", item.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update research %d: %w", item.ID, common.ErrResearchNotFound)
		}

		if item.Detail != nil {
			detail := *item.Detail
			detail.ID = 0
			detail.ResearchID = item.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "research_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"knowledge_type", "publisher", "isbn_issn", "subjects",
					"physical_description", "link", "updated_at",
				}),
			}).Create(&detail).Error; err != nil {
				return fmt.Errorf("upsert research detail %d: %w", item.ID, err)
			}
		}

		job = models.NewIndexJob(item.ID, reason)
		return NewIndexJobRepository(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// SetStatus moves an item to next when the moderation state machine allows
// it, stamps the matching timestamp column and enqueues an index job.
func (r *ResearchRepository) SetStatus(ctx context.Context, id uint, next config.ResearchStatus, now time.Time) (*models.IndexJob, error) {
	var job *models.IndexJob

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Research
		if err := tx.Select("id", "status").First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("set status of research %d: %w", id, common.ErrResearchNotFound)
			}
			return fmt.Errorf("load research %d: %w", id, err)
		}

		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("research %d %s -> %s: %w", id, current.Status, next, common.ErrInvalidTransition)
		}

		updates := map[string]any{"status": next}
		if col := models.StatusTimestampColumn(next); col != "" {
			updates[col] = now
		}

		res := tx.Model(&models.Research{}).
			Where("id = ? AND status = ?", id, current.Status).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("set status of research %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("research %d changed concurrently: %w", id, common.ErrInvalidTransition)
		}

		job = models.NewIndexJob(id, config.ReasonStatusChanged)
		return NewIndexJobRepository(tx).Create(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetWithDetail loads a research item and its detail row.
func (r *ResearchRepository) GetWithDetail(ctx context.Context, id uint) (*models.Research, error) {
	var item models.Research
	if err := r.db.WithContext(ctx).Preload("Detail").First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get research %d: %w", id, common.ErrResearchNotFound)
		}
		return nil, fmt.Errorf("get research: %w", err)
	}
	return &item, nil
}

// FindByIDs loads the given items with their details in the order of ids.
// Ids that do not exist are dropped.
func (r *ResearchRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Research, error) {
	if len(ids) == 0 {
		return []models.Research{}, nil
	}

	var rows []models.Research
	if err := r.db.WithContext(ctx).Preload("Detail").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find research by ids: %w", err)
	}

	byID := make(map[uint]models.Research, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]models.Research, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// SaveSearchText writes the derived search text of an item, creating the
// detail row when the item has none.
func (r *ResearchRepository) SaveSearchText(ctx context.Context, researchID uint, text string) error {
	detail := models.ResearchDetail{ResearchID: researchID, SearchText: text}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "research_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"search_text", "updated_at"}),
	}).Create(&detail).Error; err != nil {
		return fmt.Errorf("save search text of research %d: %w", researchID, err)
	}
	return nil
}

// ListPage returns up to limit items with ids above afterID, in id order.
func (r *ResearchRepository) ListPage(ctx context.Context, afterID uint, limit int) ([]models.Research, error) {
	var rows []models.Research
	if err := r.db.WithContext(ctx).Preload("Detail").
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list research page: %w", err)
	}
	return rows, nil
}
