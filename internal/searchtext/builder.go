// Package searchtext derives the denormalized search_text column of a
// research item from its catalog attributes.
package searchtext

import (
	"strings"

	"github.com/joshu-sajeev/researchindex/internal/models"
	"golang.org/x/text/unicode/norm"
)

// Build concatenates knowledge type, publisher, ISBN/ISSN, subjects and
// physical description, in that order, skipping empty fields. The result is
// NFC-normalized with whitespace collapsed, so rebuilding unchanged data is
// byte-for-byte identical.
func Build(d *models.ResearchDetail) string {
	if d == nil {
		return ""
	}

	parts := make([]string, 0, 5)
	for _, field := range []string{
		d.KnowledgeType,
		d.Publisher,
		d.ISBNISSN,
		d.Subjects,
		d.PhysicalDescription,
	} {
		if f := Normalize(field); f != "" {
			parts = append(parts, f)
		}
	}

	return strings.Join(parts, " ")
}

// Normalize applies NFC, trims, and collapses runs of whitespace to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
