package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/worker"
)

// Document field names.
const (
	fieldTitle               = "title"
	fieldAuthor              = "author"
	fieldStatus              = "status"
	fieldAccessLevel         = "access_level"
	fieldSearchText          = "search_text"
	fieldPublisher           = "publisher"
	fieldISBNISSN            = "isbn_issn"
	fieldSubjects            = "subjects"
	fieldPhysicalDescription = "physical_description"
	fieldCreatedAt           = "created_at"
)

var broadFields = []string{
	fieldTitle,
	fieldAuthor,
	fieldSearchText,
	fieldPublisher,
	fieldISBNISSN,
	fieldSubjects,
	fieldPhysicalDescription,
}

var errIndexClosed = errors.New("bleve index closed")

// BleveIndex is the relevance index the processor feeds and the engine queries.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

var (
	_ Backend              = (*BleveIndex)(nil)
	_ worker.DocumentIndex = (*BleveIndex)(nil)
)

// DefaultOpenTimeout bounds the wait for an on-disk index held by another
// process.
const DefaultOpenTimeout = 5 * time.Second

// OpenBleve opens the index at path, creating it when missing. An empty path
// keeps the index in memory.
func OpenBleve(path string) (*BleveIndex, error) {
	return OpenBleveTimeout(path, DefaultOpenTimeout)
}

// OpenBleveTimeout is OpenBleve with an explicit lock timeout. An on-disk
// index is exclusive to one process; a second opener fails once timeout
// passes.
func OpenBleveTimeout(path string, timeout time.Duration) (*BleveIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BleveIndex{index: idx}, nil
	}

	runtime := map[string]any{"bolt_timeout": timeout.String()}

	idx, err := bleve.OpenUsing(path, runtime)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.NewUsing(path, buildMapping(), bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, runtime)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}

	return &BleveIndex{index: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = false

	created := bleve.NewDateTimeFieldMapping()
	created.Store = false

	doc := bleve.NewDocumentMapping()
	for _, f := range broadFields {
		doc.AddFieldMappingsAt(f, text)
	}
	doc.AddFieldMappingsAt(fieldStatus, keyword)
	doc.AddFieldMappingsAt(fieldAccessLevel, keyword)
	doc.AddFieldMappingsAt(fieldCreatedAt, created)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func document(r *models.Research) map[string]any {
	doc := map[string]any{
		fieldTitle:       r.Title,
		fieldAuthor:      r.Author,
		fieldStatus:      string(r.Status),
		fieldAccessLevel: string(r.AccessLevel),
		fieldCreatedAt:   r.CreatedAt.UTC(),
	}
	if d := r.Detail; d != nil {
		doc[fieldSearchText] = d.SearchText
		doc[fieldPublisher] = d.Publisher
		doc[fieldISBNISSN] = d.ISBNISSN
		doc[fieldSubjects] = d.Subjects
		doc[fieldPhysicalDescription] = d.PhysicalDescription
	}
	return doc
}

// Index adds or replaces the document of one research item.
func (b *BleveIndex) Index(ctx context.Context, r *models.Research) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errIndexClosed
	}

	if err := b.index.Index(docID(r.ID), document(r)); err != nil {
		return fmt.Errorf("index research %d: %w", r.ID, err)
	}
	return nil
}

// Delete removes an item's document. Deleting an unknown id is not an error.
func (b *BleveIndex) Delete(ctx context.Context, researchID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errIndexClosed
	}

	if err := b.index.Delete(docID(researchID)); err != nil {
		return fmt.Errorf("delete research %d: %w", researchID, err)
	}
	return nil
}

// Search runs q against the index.
func (b *BleveIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errIndexClosed
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), q.Limit, 0, false)
	req.SortBy([]string{"-_score", "-" + fieldCreatedAt})

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 0)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ResearchID: uint(id), Score: h.Score})
	}
	return hits, nil
}

// DocCount reports how many documents the index holds.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, errIndexClosed
	}
	return b.index.DocCount()
}

func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// buildQuery combines the text match for the mode with the visibility filter.
func buildQuery(q Query) query.Query {
	var text query.Query
	if q.Strict {
		text = strictQuery(q.Text)
	} else {
		text = broadQuery(q.Text)
	}

	filters := visibilityFilters(q.Visibility)
	if len(filters) == 0 {
		return text
	}
	return bleve.NewConjunctionQuery(append([]query.Query{text}, filters...)...)
}

// strictQuery matches title and author only. A phrase hit outranks an item
// that merely contains every term.
func strictQuery(text string) query.Query {
	titlePhrase := bleve.NewMatchPhraseQuery(text)
	titlePhrase.SetField(fieldTitle)
	titlePhrase.SetBoost(3)

	authorPhrase := bleve.NewMatchPhraseQuery(text)
	authorPhrase.SetField(fieldAuthor)
	authorPhrase.SetBoost(2)

	titleAll := bleve.NewMatchQuery(text)
	titleAll.SetField(fieldTitle)
	titleAll.SetOperator(query.MatchQueryOperatorAnd)

	authorAll := bleve.NewMatchQuery(text)
	authorAll.SetField(fieldAuthor)
	authorAll.SetOperator(query.MatchQueryOperatorAnd)

	return bleve.NewDisjunctionQuery(titlePhrase, authorPhrase, titleAll, authorAll)
}

// broadQuery matches any term in any catalog field.
func broadQuery(text string) query.Query {
	qs := make([]query.Query, 0, len(broadFields))
	for _, f := range broadFields {
		m := bleve.NewMatchQuery(text)
		m.SetField(f)
		if f == fieldTitle {
			m.SetBoost(2)
		}
		qs = append(qs, m)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func visibilityFilters(v Visibility) []query.Query {
	var filters []query.Query
	if vals := v.StatusValues(); len(vals) > 0 {
		filters = append(filters, anyTerm(fieldStatus, vals))
	}
	if vals := v.AccessValues(); len(vals) > 0 {
		filters = append(filters, anyTerm(fieldAccessLevel, vals))
	}
	return filters
}

func anyTerm(field string, values []string) query.Query {
	qs := make([]query.Query, len(values))
	for i, v := range values {
		t := bleve.NewTermQuery(v)
		t.SetField(field)
		qs[i] = t
	}
	return bleve.NewDisjunctionQuery(qs...)
}

// IndexAll indexes items in a single bleve batch.
func (b *BleveIndex) IndexAll(ctx context.Context, items []models.Research) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errIndexClosed
	}

	batch := b.index.NewBatch()
	for i := range items {
		if err := batch.Index(docID(items[i].ID), document(&items[i])); err != nil {
			return fmt.Errorf("batch index %d: %w", items[i].ID, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
