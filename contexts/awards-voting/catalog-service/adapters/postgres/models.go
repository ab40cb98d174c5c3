package postgresadapter

import (
	"time"

	"paidvote/contexts/awards-voting/catalog-service/domain/entities"
)

type categoryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	SortOrder   int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (categoryModel) TableName() string {
	return "categories"
}

func (m categoryModel) toEntity() entities.Category {
	return entities.Category{
		CategoryID:  m.ID,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.IsActive,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// contestantModel owns the contestants table. vote_count is incremented by
// the vote ledger only.
type contestantModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CategoryID string    `gorm:"column:category_id;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PhotoRef   string    `gorm:"column:photo_ref"`
	VoteCount  int64     `gorm:"column:vote_count;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (contestantModel) TableName() string {
	return "contestants"
}

func (m contestantModel) toEntity() entities.Contestant {
	return entities.Contestant{
		ContestantID: m.ID,
		CategoryID:   m.CategoryID,
		Name:         m.Name,
		PhotoRef:     m.PhotoRef,
		VoteCount:    m.VoteCount,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}
