package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/joshu-sajeev/researchindex/internal/config"
	"github.com/joshu-sajeev/researchindex/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory database on a single connection, so
// concurrent callers serialize the way row locks would serialize them.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Disable logs during tests
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(&models.Research{}, &models.ResearchDetail{}, &models.IndexJob{})
	require.NoError(t, err)

	return db
}

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func seedResearch(t *testing.T, db *gorm.DB, title string, status config.ResearchStatus, detail *models.ResearchDetail) *models.Research {
	t.Helper()

	r := &models.Research{
		UserID:          1,
		Title:           title,
		Author:          "A. Researcher",
		Status:          status,
		AccessLevel:     config.AccessLevelPublic,
		PublicationDate: datatypes.Date(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)),
		Detail:          detail,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func seedJob(t *testing.T, db *gorm.DB, mutate func(*models.IndexJob)) *models.IndexJob {
	t.Helper()

	job := models.NewIndexJob(1, config.ReasonManual)
	if mutate != nil {
		mutate(job)
	}
	require.NoError(t, db.Create(job).Error)
	return job
}
