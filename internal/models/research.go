package models

import (
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"gorm.io/datatypes"
)

type Research struct {
	ID              uint                  `gorm:"primaryKey;autoIncrement"`
	UserID          uint                  `gorm:"index"`
	Title           string                `gorm:"type:varchar(500);not null"`
	Author          string                `gorm:"type:varchar(255);not null"`
	Status          config.ResearchStatus `gorm:"type:varchar(20);not null;index"`
	AccessLevel     config.AccessLevel    `gorm:"type:varchar(20);not null"`
	PublicationDate datatypes.Date
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	ArchivedAt      *time.Time
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
	Detail          *ResearchDetail `gorm:"foreignKey:ResearchID"`
}

func (Research) TableName() string { return "researches" }

// ResearchDetail holds the catalog attributes of a research item. SearchText
// is derived from the other fields and only the index processor writes it.
type ResearchDetail struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"`
	ResearchID          uint   `gorm:"uniqueIndex;not null"`
	KnowledgeType       string `gorm:"type:varchar(100)"`
	Publisher           string `gorm:"type:varchar(255)"`
	ISBNISSN            string `gorm:"column:isbn_issn;type:varchar(100)"`
	Subjects            string `gorm:"type:text"`
	PhysicalDescription string `gorm:"type:text"`
	Link                string `gorm:"type:varchar(1000)"`
	SearchText          string `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ResearchDetail) TableName() string { return "research_details" }

// StatusTimestampColumn names the column stamped when an item enters status.
func StatusTimestampColumn(status config.ResearchStatus) string {
	switch status {
	case config.ResearchStatusApproved:
		return "approved_at"
	case config.ResearchStatusRejected:
		return "rejected_at"
	case config.ResearchStatusArchived:
		return "archived_at"
	default:
		return ""
	}
}
