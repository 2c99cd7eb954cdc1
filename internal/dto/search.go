package dto

import "time"

type SearchResultDTO struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	Author              string    `json:"author"`
	Status              string    `json:"status"`
	AccessLevel         string    `json:"access_level"`
	PublicationDate     string    `json:"publication_date,omitempty"`
	KnowledgeType       string    `json:"knowledge_type,omitempty"`
	Publisher           string    `json:"publisher,omitempty"`
	ISBNISSN            string    `json:"isbn_issn,omitempty"`
	Subjects            string    `json:"subjects,omitempty"`
	PhysicalDescription string    `json:"physical_description,omitempty"`
	Link                string    `json:"link,omitempty"`
	Score               float64   `json:"score"`
	CreatedAt           time.Time `json:"created_at"`
}

type SearchResponseDTO struct {
	Query   string            `json:"query"`
	Strict  bool              `json:"strict"`
	Count   int               `json:"count"`
	Results []SearchResultDTO `json:"results"`
}
