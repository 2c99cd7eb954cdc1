package dto

import "time"

type ResearchDetailDTO struct {
	KnowledgeType       string `json:"knowledge_type" validate:"max=100"`
	Publisher           string `json:"publisher" validate:"max=255"`
	ISBNISSN            string `json:"isbn_issn" validate:"max=100"`
	Subjects            string `json:"subjects"`
	PhysicalDescription string `json:"physical_description"`
	Link                string `json:"link" validate:"omitempty,url,max=1000"`
}

type ResearchCreateDTO struct {
	UserID          uint              `json:"user_id" validate:"required,gt=0"`
	Title           string            `json:"title" validate:"required,max=500"`
	Author          string            `json:"author" validate:"required,max=255"`
	AccessLevel     string            `json:"access_level" validate:"omitempty,oneof=public private"`
	PublicationDate string            `json:"publication_date"`
	Detail          ResearchDetailDTO `json:"detail"`
}

type ResearchUpdateDTO struct {
	Title           string            `json:"title" validate:"required,max=500"`
	Author          string            `json:"author" validate:"required,max=255"`
	AccessLevel     string            `json:"access_level" validate:"omitempty,oneof=public private"`
	PublicationDate string            `json:"publication_date"`
	Detail          ResearchDetailDTO `json:"detail"`
}

type ResearchStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected archived"`
}

type ResearchResponseDTO struct {
	ID              uint              `json:"id"`
	UserID          uint              `json:"user_id"`
	Title           string            `json:"title"`
	Author          string            `json:"author"`
	Status          string            `json:"status"`
	AccessLevel     string            `json:"access_level"`
	PublicationDate string            `json:"publication_date,omitempty"`
	Detail          ResearchDetailDTO `json:"detail"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	ArchivedAt      *time.Time        `json:"archived_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	IndexJobID      uint              `json:"index_job_id,omitempty"`
}
