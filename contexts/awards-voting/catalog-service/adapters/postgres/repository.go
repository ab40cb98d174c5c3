package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
	domainerrors "paidvote/contexts/awards-voting/catalog-service/domain/errors"
	"paidvote/contexts/awards-voting/catalog-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// AutoMigrate creates the catalog tables the vote ledger reads and counts
// against.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&categoryModel{}, &contestantModel{})
}

func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]entities.Category, error) {
	query := r.db.WithContext(ctx).Model(&categoryModel{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []categoryModel
	if err := query.Order("sort_order ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("catalog_repo_list_categories_failed", err)
	}
	items := make([]entities.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetCategory(ctx context.Context, categoryID string) (entities.Category, error) {
	var row categoryModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(categoryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Category{}, domainerrors.ErrCategoryNotFound
		}
		return entities.Category{}, r.logError("catalog_repo_get_category_failed", err, "category_id", categoryID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListContestants(ctx context.Context, categoryID string) ([]entities.Contestant, error) {
	var rows []contestantModel
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Order("vote_count DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("catalog_repo_list_contestants_failed", err, "category_id", categoryID)
	}
	items := make([]entities.Contestant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertCategory(ctx context.Context, category entities.Category) error {
	row := categoryModel{
		ID:          strings.TrimSpace(category.CategoryID),
		Name:        strings.TrimSpace(category.Name),
		Description: strings.TrimSpace(category.Description),
		IsActive:    category.Active,
		SortOrder:   category.SortOrder,
		CreatedAt:   category.CreatedAt.UTC(),
		UpdatedAt:   category.UpdatedAt.UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "is_active", "sort_order", "updated_at"}),
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("catalog_repo_upsert_category_failed", err, "category_id", row.ID)
	}
	return nil
}

func (r *Repository) UpsertContestant(ctx context.Context, contestant entities.Contestant) error {
	row := contestantModel{
		ID:         strings.TrimSpace(contestant.ContestantID),
		CategoryID: strings.TrimSpace(contestant.CategoryID),
		Name:       strings.TrimSpace(contestant.Name),
		PhotoRef:   strings.TrimSpace(contestant.PhotoRef),
		CreatedAt:  contestant.CreatedAt.UTC(),
		UpdatedAt:  contestant.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&categoryModel{}).Where("id = ?", row.CategoryID).Count(&count).Error; err != nil {
			return r.logError("catalog_repo_upsert_contestant_failed", err, "contestant_id", row.ID)
		}
		if count == 0 {
			return domainerrors.ErrCategoryNotFound
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_id", "name", "photo_ref", "updated_at"}),
		}).
			Omit("vote_count").
			Create(&row).
			Error
		if err != nil {
			return r.logError("catalog_repo_upsert_contestant_failed", err, "contestant_id", row.ID)
		}
		return nil
	})
}

func (r *Repository) SetCategoryActive(ctx context.Context, categoryID string, active bool, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&categoryModel{}).
		Where("id = ?", strings.TrimSpace(categoryID)).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("catalog_repo_set_category_active_failed", result.Error, "category_id", categoryID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCategoryNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "awards-voting/catalog-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("catalog repository operation failed", fields...)
	return errors.Join(domainerrors.ErrStoreUnavailable, err)
}

var _ ports.CatalogRepository = (*Repository)(nil)
