package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/studio-booking/internal/model"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := SeedDemo(ctx, db, now, bcrypt.MinCost)
	require.NoError(t, err)
	second, err := SeedDemo(ctx, db, now, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 3, n)

	cls, err := NewClassRepo(db).GetByID(ctx, first.Class)
	require.NoError(t, err)
	assert.Equal(t, "2030-06-02", cls.Date.Format(DateLayout))
	assert.Equal(t, 2, cls.Capacity)
	assert.Len(t, cls.Trainings, 2)
}

func TestReports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	seed, err := SeedDemo(ctx, db, now, bcrypt.MinCost)
	require.NoError(t, err)

	ledger := NewClassLedger(db)
	book := func(userID uint64) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		code, err := ledger.ReserveTx(ctx, tx, userID, seed.Class)
		require.NoError(t, err)
		require.Equal(t, model.CodeOK, code)
		require.NoError(t, tx.Commit())
	}
	book(seed.Ana)

	repo := NewReportRepo(db)

	spend, err := repo.TopSpenders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, spend, 3)
	assert.Equal(t, "ana", spend[0].Username)
	assert.Equal(t, "50", spend[0].TotalSpend.String())
	assert.Equal(t, 1, spend[0].SpendRank)
	assert.Equal(t, "bojan", spend[1].Username)
	assert.Equal(t, "30", spend[1].SpendMerch.String())
	assert.Equal(t, 2, spend[1].SpendRank)
	assert.Equal(t, "0", spend[2].TotalSpend.String())
	assert.Equal(t, 3, spend[2].SpendRank)

	util, err := repo.ClassUtilization(ctx)
	require.NoError(t, err)
	require.Len(t, util, 1)
	assert.Equal(t, "2030-06-02", util[0].Date)
	assert.Equal(t, 1, util[0].Booked)
	assert.Equal(t, "50", util[0].UtilizationPct.String())
	assert.Equal(t, 1, util[0].DailyRank)

	book(seed.Bojan)
	pop, err := repo.TrainingPopularityMonthly(ctx)
	require.NoError(t, err)
	require.Len(t, pop, 2)
	assert.Equal(t, "2030-06", pop[0].Month)
	assert.Equal(t, 2, pop[0].NumBookings)
	assert.Equal(t, 1, pop[0].RankInMonth)
	assert.Equal(t, 1, pop[1].RankInMonth, "ties share a rank")
	assert.Equal(t, "Vinyasa", pop[0].TrainingName)
}

func TestUtilizationRounding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	full := insertClass(t, db, day, "08:00", 3)
	third := insertClass(t, db, day, "09:00", 3)

	ledger := NewClassLedger(db)
	users := []uint64{insertUser(t, db, "a"), insertUser(t, db, "b"), insertUser(t, db, "c")}
	reserve := func(tx *sql.Tx, u, c uint64) {
		code, err := ledger.ReserveTx(ctx, tx, u, c)
		require.NoError(t, err)
		require.Equal(t, model.CodeOK, code)
	}
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	for _, u := range users {
		reserve(tx, u, full)
	}
	reserve(tx, users[0], third)
	require.NoError(t, tx.Commit())

	util, err := NewReportRepo(db).ClassUtilization(ctx)
	require.NoError(t, err)
	require.Len(t, util, 2)
	assert.Equal(t, "100", util[0].UtilizationPct.String())
	assert.Equal(t, 1, util[0].DailyRank)
	assert.Equal(t, "33.33", util[1].UtilizationPct.String())
	assert.Equal(t, 2, util[1].DailyRank)
}
