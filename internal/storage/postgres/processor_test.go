package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joshu-sajeev/researchindex/common"
	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/mocks"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/joshu-sajeev/researchindex/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source shared by a processor and its test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestProcessor(t *testing.T, repo *IndexJobRepository, research *ResearchRepository, c *clock, opts ...worker.Option) *worker.Processor {
	t.Helper()
	opts = append(opts, worker.WithClock(c.Now))
	return worker.NewProcessor(repo, research, worker.Backoff{Base: time.Minute}, opts...)
}

func TestProcessor_RebuildsSearchText(t *testing.T) {
	db := SetupTestDB(t)
	jobs := NewIndexJobRepository(db)
	research := NewResearchRepository(db)
	c := &clock{now: testNow}
	ctx := context.Background()

	item := seedResearch(t, db, "Cassava nutrition", config.ResearchStatusApproved, &models.ResearchDetail{
		KnowledgeType: "Thesis",
		Publisher:     "Makerere University",
		Subjects:      "cassava; nutrition",
	})
	job := seedJob(t, db, func(j *models.IndexJob) { j.ResearchID = item.ID })

	stats, err := newTestProcessor(t, jobs, research, c).ProcessPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, worker.Stats{Processed: 1, Completed: 1}, stats)

	got, err := research.GetWithDetail(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thesis Makerere University cassava; nutrition", got.Detail.SearchText)

	done, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, testNow.Equal(*done.CompletedAt))
}

func TestProcessor_MissingResearchCompletes(t *testing.T) {
	db := SetupTestDB(t)
	jobs := NewIndexJobRepository(db)
	c := &clock{now: testNow}

	job := seedJob(t, db, func(j *models.IndexJob) { j.ResearchID = 4242 })

	stats, err := newTestProcessor(t, jobs, NewResearchRepository(db), c).ProcessPending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Completed)

	done, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusCompleted, done.Status)
}

func TestProcessor_RetriesUntilExhausted(t *testing.T) {
	db := SetupTestDB(t)
	jobs := NewIndexJobRepository(db)
	c := &clock{now: testNow}
	ctx := context.Background()

	item := seedResearch(t, db, "Flaky", config.ResearchStatusApproved, nil)
	job := seedJob(t, db, func(j *models.IndexJob) { j.ResearchID = item.ID })

	idx := new(mocks.DocumentIndexMock)
	idx.On("Index", mock.Anything, mock.Anything).Return(errors.New("index offline"))

	p := newTestProcessor(t, jobs, NewResearchRepository(db), c, worker.WithIndex(idx))

	stats, err := p.ProcessPending(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, worker.Stats{Processed: 1, Requeued: 1}, stats)

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.AttemptCount)
	require.NotNil(t, got.NextRetryAt)
	assert.True(t, testNow.Add(time.Minute).Equal(*got.NextRetryAt))

	// Still gated by backoff.
	stats, err = p.ProcessPending(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, stats.Processed)

	c.Advance(time.Minute)
	stats, err = p.ProcessPending(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Requeued)

	c.Advance(2 * time.Minute)
	stats, err = p.ProcessPending(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)

	got, err = jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusFailed, got.Status)
	assert.Equal(t, 3, got.AttemptCount)
	assert.Nil(t, got.NextRetryAt)
	require.NotNil(t, got.LastError)
	assert.Contains(t, *got.LastError, "index offline")

	c.Advance(time.Hour)
	stats, err = p.ProcessPending(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, stats.Processed, "failed jobs are never picked up again")
}

func TestProcessor_RejectsLimit(t *testing.T) {
	db := SetupTestDB(t)
	p := newTestProcessor(t, NewIndexJobRepository(db), NewResearchRepository(db), &clock{now: testNow})

	for _, limit := range []int{0, -1, config.MaxBatchLimit + 1} {
		_, err := p.ProcessPending(context.Background(), limit)
		assert.ErrorIs(t, err, common.ErrInvalidLimit, "limit %d", limit)
	}
}

func TestProcessor_ConcurrentBatchesClaimOnce(t *testing.T) {
	db := SetupTestDB(t)
	jobs := NewIndexJobRepository(db)
	research := NewResearchRepository(db)
	c := &clock{now: testNow}

	item := seedResearch(t, db, "Contended", config.ResearchStatusApproved, nil)
	job := seedJob(t, db, func(j *models.IndexJob) { j.ResearchID = item.ID })

	const processors = 4
	results := make([]worker.Stats, processors)

	var wg sync.WaitGroup
	for i := range processors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := newTestProcessor(t, jobs, research, c).ProcessPending(context.Background(), 5)
			assert.NoError(t, err)
			results[i] = stats
		}()
	}
	wg.Wait()

	var total worker.Stats
	for _, s := range results {
		total.Processed += s.Processed
		total.Completed += s.Completed
	}
	assert.Equal(t, 1, total.Processed)
	assert.Equal(t, 1, total.Completed)

	got, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusCompleted, got.Status)
}

func TestProcessor_RecoverStale(t *testing.T) {
	db := SetupTestDB(t)
	jobs := NewIndexJobRepository(db)
	c := &clock{now: testNow}
	ctx := context.Background()

	stuck := seedJob(t, db, nil)
	_, err := jobs.Claim(ctx, stuck.ID, testNow.Add(-time.Hour))
	require.NoError(t, err)

	fresh := seedJob(t, db, nil)
	_, err = jobs.Claim(ctx, fresh.ID, testNow.Add(-time.Minute))
	require.NoError(t, err)

	p := newTestProcessor(t, jobs, NewResearchRepository(db), c)

	n, err := p.RecoverStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := jobs.Get(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.AttemptCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "processing timed out", *got.LastError)

	still, err := jobs.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusProcessing, still.Status)

	n, err = p.RecoverStale(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
