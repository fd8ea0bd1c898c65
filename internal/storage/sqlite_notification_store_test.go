package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/storage"
)

func TestSQLiteNotificationStore(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	store := storage.NewSQLiteNotificationStore(db)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	t.Run("empty", func(t *testing.T) {
		list, err := store.ListNotifications(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.NotNil(t, list)
	})

	t.Run("log and list", func(t *testing.T) {
		entry := storage.NotificationLogEntry{
			ReportID:  "1000",
			Sink:      "websocket",
			Items:     []string{"Mango", "Grape"},
			Subject:   "In stock: Mango, Grape",
			Status:    storage.StatusSent,
			CreatedAt: base,
		}
		require.NoError(t, store.LogNotification(ctx, entry))

		list, err := store.ListNotifications(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)

		got := list[0]
		assert.NotZero(t, got.ID)
		assert.Equal(t, entry.ReportID, got.ReportID)
		assert.Equal(t, entry.Sink, got.Sink)
		assert.Equal(t, entry.Items, got.Items)
		assert.Equal(t, entry.Subject, got.Subject)
		assert.Equal(t, entry.Status, got.Status)
		assert.Empty(t, got.ErrorMsg)
	})

	t.Run("newest first", func(t *testing.T) {
		entry := storage.NotificationLogEntry{
			ReportID:  "2000",
			Sink:      "smtp",
			Status:    storage.StatusFailed,
			ErrorMsg:  "connection refused",
			CreatedAt: base.Add(time.Minute),
		}
		require.NoError(t, store.LogNotification(ctx, entry))

		list, err := store.ListNotifications(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, storage.StatusFailed, list[0].Status)
		assert.Equal(t, "connection refused", list[0].ErrorMsg)
		assert.Equal(t, []string{}, list[0].Items)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := store.ListNotifications(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "2000", list[0].ReportID)
	})

	t.Run("default limit", func(t *testing.T) {
		list, err := store.ListNotifications(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
