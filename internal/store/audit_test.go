package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/config"
)

func TestAuditTrail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordAction(ctx, AuditEntry{BookingID: 42, Action: "check_in", Detail: "room 204"}))
	require.NoError(t, db.RecordAction(ctx, AuditEntry{BookingID: 42, Action: "pay_due", Detail: "cash", Amount: 1500}))
	require.NoError(t, db.RecordAction(ctx, AuditEntry{BookingID: 7, Action: "cancel", Detail: "guest_request"}))

	entries, err := db.RecentActions(ctx, 42, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "pay_due", entries[0].Action)
	assert.Equal(t, 1500.0, entries[0].Amount)
	assert.Equal(t, "check_in", entries[1].Action)
	assert.False(t, entries[0].CreatedAt.IsZero())

	entries, err = db.RecentActions(ctx, 99, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecentActionsLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordAction(ctx, AuditEntry{BookingID: 1, Action: "pay_due", Amount: float64(i)}))
	}

	entries, err := db.RecentActions(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 4.0, entries[0].Amount)
}

func TestPerformBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontdesk.db")

	db, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.RecordAction(context.Background(), AuditEntry{BookingID: 1, Action: "check_in"}))
	require.NoError(t, db.Close())

	backupDir := filepath.Join(dir, "backups")
	logger := zerolog.Nop()
	svc := NewBackupService(dbPath, config.BackupConfig{Enabled: true, Dir: backupDir}, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	info, err := files[0].Info()
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
