package numbering_test

import (
	"errors"
	"sync"
	"testing"
	"time"
	"utility-billing-backend/db/models"
	"utility-billing-backend/internal/testutil"
	"utility-billing-backend/numbering"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func next(t *testing.T, db *gorm.DB, g numbering.Generator, counter string) string {
	t.Helper()
	var number string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = g.NextNumber(tx, counter)
		return err
	})
	require.NoError(t, err)
	return number
}

func TestSequenceGenerator_NextNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	october := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
	g := numbering.NewSequenceGenerator().WithClock(fixedClock(october))

	t.Run("yearly counter is created on first use", func(t *testing.T) {
		assert.Equal(t, "SR-2026-000001", next(t, db, g, numbering.SubscriptionRequestCounter))
		assert.Equal(t, "SR-2026-000002", next(t, db, g, numbering.SubscriptionRequestCounter))
	})

	t.Run("counters are independent", func(t *testing.T) {
		assert.Equal(t, "ACC-00000001", next(t, db, g, numbering.CustomerAccountCounter))
		assert.Equal(t, "SR-2026-000003", next(t, db, g, numbering.SubscriptionRequestCounter))
	})

	t.Run("unknown counter gets an upper-case prefix", func(t *testing.T) {
		assert.Equal(t, "WORK_ORDER-000001", next(t, db, g, "work_order"))
	})

	t.Run("yearly counter resets in a new year", func(t *testing.T) {
		nextYear := g.WithClock(fixedClock(october.AddDate(1, 0, 0)))
		assert.Equal(t, "SR-2027-000001", next(t, db, nextYear, numbering.SubscriptionRequestCounter))
	})

	t.Run("requires a transaction and a name", func(t *testing.T) {
		_, err := g.NextNumber(nil, numbering.SubscriptionRequestCounter)
		assert.Error(t, err)

		err = db.Transaction(func(tx *gorm.DB) error {
			_, err := g.NextNumber(tx, "  ")
			return err
		})
		assert.Error(t, err)
	})
}

func TestSequenceGenerator_RollbackReleasesNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	g := numbering.NewSequenceGenerator()

	first := next(t, db, g, numbering.CustomerAccountCounter)
	assert.Equal(t, "ACC-00000001", first)

	err := db.Transaction(func(tx *gorm.DB) error {
		number, err := g.NextNumber(tx, numbering.CustomerAccountCounter)
		require.NoError(t, err)
		assert.Equal(t, "ACC-00000002", number)
		return errors.New("abort")
	})
	require.Error(t, err)

	assert.Equal(t, "ACC-00000002", next(t, db, g, numbering.CustomerAccountCounter))
}

func TestSequenceGenerator_MonthlyCounter(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, db.Create(&models.NumberSequence{
		Name: "receipt", Prefix: "RCT", Padding: 4, ResetPeriod: models.MonthlyReset,
	}).Error)

	g := numbering.NewSequenceGenerator().WithClock(fixedClock(time.Date(2026, time.October, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "RCT-202610-0001", next(t, db, g, "receipt"))
	assert.Equal(t, "RCT-202610-0002", next(t, db, g, "receipt"))

	november := g.WithClock(fixedClock(time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "RCT-202611-0001", next(t, db, november, "receipt"))
}

func TestSequenceGenerator_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	db := testutil.NewTestDB(t)
	g := numbering.NewSequenceGenerator()

	const callers = 8
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = db.Transaction(func(tx *gorm.DB) error {
				number, err := g.NextNumber(tx, numbering.CustomerAccountCounter)
				if err == nil {
					results <- number
				}
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for number := range results {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, callers)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "SR-2026-000042", numbering.Format("SR", "2026", 6, 42))
	assert.Equal(t, "ACC-00000042", numbering.Format("ACC", "", 8, 42))
	assert.Equal(t, "7", numbering.Format("", "", 0, 7))
	assert.Equal(t, "", numbering.PeriodKey(models.NeverReset, time.Now()))
}
