package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	usagedomain "github.com/woofdesk/woofdesk/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagedomain.FeatureUsage{}))
	return db
}

func TestIncrementUsage(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	subID := node.Generate()
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	limit := int64(3)
	row := usagedomain.FeatureUsage{
		ID:             node.Generate(),
		SubscriptionID: subID,
		FeatureName:    "health_analytics",
		UsageMonth:     usagedomain.MonthKey(now),
		MonthlyLimit:   &limit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	count, admitted, err := repo.IncrementUsage(ctx, db, row)
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, int64(1), count)

	// Same key increments the existing row instead of inserting.
	row.ID = node.Generate()
	count, admitted, err = repo.IncrementUsage(ctx, db, row)
	require.NoError(t, err)
	assert.True(t, admitted)
	assert.Equal(t, int64(2), count)

	var rows int64
	require.NoError(t, db.Model(&usagedomain.FeatureUsage{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestIncrementUsageStopsAtLimit(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	subID := node.Generate()
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	limit := int64(3)
	row := usagedomain.FeatureUsage{
		SubscriptionID: subID,
		FeatureName:    "ai_diet_planner",
		UsageMonth:     usagedomain.MonthKey(now),
		MonthlyLimit:   &limit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for want := int64(1); want <= limit; want++ {
		row.ID = node.Generate()
		count, admitted, err := repo.IncrementUsage(ctx, db, row)
		require.NoError(t, err)
		assert.True(t, admitted)
		assert.Equal(t, want, count)
	}

	// The guard and the increment are the same statement: a call at the
	// limit is rejected without moving the counter.
	row.ID = node.Generate()
	_, admitted, err := repo.IncrementUsage(ctx, db, row)
	require.NoError(t, err)
	assert.False(t, admitted)

	stored, err := repo.CurrentCount(ctx, db, subID, "ai_diet_planner", usagedomain.MonthKey(now))
	require.NoError(t, err)
	assert.Equal(t, limit, stored)
}

func TestIncrementUsageUnlimited(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	subID := node.Generate()
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	for want := int64(1); want <= 5; want++ {
		count, admitted, err := repo.IncrementUsage(ctx, db, usagedomain.FeatureUsage{
			ID:             node.Generate(),
			SubscriptionID: subID,
			FeatureName:    "expert_chat",
			UsageMonth:     usagedomain.MonthKey(now),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		require.NoError(t, err)
		assert.True(t, admitted)
		assert.Equal(t, want, count)
	}
}

func TestIncrementUsageMonthsAreIndependent(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	subID := node.Generate()

	january := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)
	february := time.Date(2025, 2, 1, 0, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, _, err := repo.IncrementUsage(ctx, db, usagedomain.FeatureUsage{
			ID:             node.Generate(),
			SubscriptionID: subID,
			FeatureName:    "video_consult",
			UsageMonth:     usagedomain.MonthKey(january),
			CreatedAt:      january,
			UpdatedAt:      january,
		})
		require.NoError(t, err)
	}

	// A fresh month starts its own counter at 1.
	count, _, err := repo.IncrementUsage(ctx, db, usagedomain.FeatureUsage{
		ID:             node.Generate(),
		SubscriptionID: subID,
		FeatureName:    "video_consult",
		UsageMonth:     usagedomain.MonthKey(february),
		CreatedAt:      february,
		UpdatedAt:      february,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	janCount, err := repo.CurrentCount(ctx, db, subID, "video_consult", usagedomain.MonthKey(january))
	require.NoError(t, err)
	assert.Equal(t, int64(3), janCount)
}

func TestCurrentCountMissingRow(t *testing.T) {
	db := openTestDB(t)
	repo := Provide()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	count, err := repo.CurrentCount(context.Background(), db, node.Generate(), "expert_chat", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMonthKeyUsesUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 01:30 IST on Feb 1 is still Jan 31 in UTC.
	localFeb := time.Date(2025, 2, 1, 1, 30, 0, 0, ist)
	assert.Equal(t, "2025-01", usagedomain.MonthKey(localFeb))
}
