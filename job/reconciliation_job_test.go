package job

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"StoryVault/models"
	"StoryVault/repositories"
	"StoryVault/storage"
	"StoryVault/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArchives(t *testing.T, repo repositories.BackupRepository, store storage.Storage, n int, missing map[int]bool) []uint {
	t.Helper()
	ctx := context.Background()
	ids := make([]uint, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("backups/1/chat-%d.svb", i)
		if !missing[i] {
			_, err := store.Upload(ctx, key, strings.NewReader("blob"))
			require.NoError(t, err)
		}
		entry := &models.BackupHistory{
			UserID:      1,
			SessionType: "chat",
			SessionID:   uint(i + 1),
			Action:      models.BackupActionArchive,
			ObjectKey:   key,
			BackupDate:  time.Now(),
			BackupMode:  "manual",
		}
		require.NoError(t, repo.CreateBackupHistory(ctx, entry))
		ids[i] = entry.ID
	}
	// restore entries carry no blob and are never checked
	require.NoError(t, repo.CreateBackupHistory(ctx, &models.BackupHistory{
		UserID: 1, SessionType: "chat", SessionID: 1, Action: models.BackupActionRestore,
		BackupDate: time.Now(), BackupMode: "manual",
	}))
	return ids
}

func TestReconcilerReportsMissingBlobs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewBackupRepository(db)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ids := seedArchives(t, repo, store, 5, map[int]bool{1: true, 4: true})

	r := NewArchiveReconciler(repo, store, false)
	r.batchSize = 2
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Checked)
	assert.Equal(t, []uint{ids[1], ids[4]}, report.Missing)
	assert.Zero(t, report.Pruned)

	all, err := repo.ListHistory(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestReconcilerPrunes(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewBackupRepository(db)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ids := seedArchives(t, repo, store, 3, map[int]bool{0: true})

	report, err := NewArchiveReconciler(repo, store, true).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pruned)

	_, err = repo.FindOwnedHistory(context.Background(), 1, ids[0])
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.FindOwnedHistory(context.Background(), 1, ids[1])
	assert.NoError(t, err)
}

func TestStartStopsWithContext(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewBackupRepository(db)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewArchiveReconciler(repo, store, false).Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
