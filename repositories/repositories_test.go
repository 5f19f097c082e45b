package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"StoryVault/models"
	"StoryVault/repositories"
	"StoryVault/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatFindOwnedEnforcesOwnership(t *testing.T) {
	db := testutil.NewTestDB(t)
	chat := testutil.SeedChat(t, db, 1, "魔法学习", []string{"hi"}, 0)
	repo := repositories.NewChatRepository(db)

	found, err := repo.FindOwned(context.Background(), 1, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "魔法学习", found.Name)

	_, err = repo.FindOwned(context.Background(), 2, chat.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.FindOwned(context.Background(), 1, chat.ID+100)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGroupChatFindOwned(t *testing.T) {
	db := testutil.NewTestDB(t)
	group := testutil.SeedGroupChat(t, db, 5, "party", []string{"a"}, 0)
	repo := repositories.NewGroupChatRepository(db)

	found, err := repo.FindOwned(context.Background(), 5, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "party", found.Name)

	_, err = repo.FindOwned(context.Background(), 6, group.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMessagesOrderedBySendDate(t *testing.T) {
	db := testutil.NewTestDB(t)
	chat := testutil.SeedChat(t, db, 1, "c", nil, 0)
	repo := repositories.NewMessageRepository(db)

	batch := []*models.Message{
		{ChatID: &chat.ID, SendDate: 30, Content: "third"},
		{ChatID: &chat.ID, SendDate: 10, Content: "first"},
		{ChatID: &chat.ID, SendDate: 20, Content: "second"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), batch))
	for _, m := range batch {
		assert.NotZero(t, m.ID)
	}

	msgs, err := repo.FindByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})

	none, err := repo.FindByGroupChat(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSwipesOrderedByMessageThenIndex(t *testing.T) {
	db := testutil.NewTestDB(t)
	chat := testutil.SeedChat(t, db, 1, "c", []string{"m1", "m2"}, 3)
	ctx := context.Background()

	msgs, err := repositories.NewMessageRepository(db).FindByChat(ctx, chat.ID)
	require.NoError(t, err)
	ids := []uint{msgs[1].ID, msgs[0].ID}

	swipes, err := repositories.NewSwipeRepository(db).FindByMessageIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, swipes, 6)
	for i := 1; i < len(swipes); i++ {
		prev, cur := swipes[i-1], swipes[i]
		ordered := prev.MessageID < cur.MessageID ||
			(prev.MessageID == cur.MessageID && prev.SwipeIndex < cur.SwipeIndex)
		assert.True(t, ordered, "swipe %d out of order", i)
	}

	empty, err := repositories.NewSwipeRepository(db).FindByMessageIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	uow := repositories.NewUnitOfWork(db)
	boom := errors.New("boom")

	var created models.Chat
	err := uow.Transaction(context.Background(), func(s *repositories.Stores) error {
		created = models.Chat{UserID: 1, Name: "temp"}
		if err := s.Chats.Create(context.Background(), &created); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = uow.Stores().Chats.FindOwned(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBackupHistoryListNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewBackupRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateBackupHistory(ctx, &models.BackupHistory{
			UserID:      9,
			SessionType: "chat",
			SessionID:   uint(i + 1),
			Action:      models.BackupActionArchive,
			BackupDate:  base.Add(time.Duration(i) * time.Hour),
			BackupMode:  "manual",
		}))
	}
	require.NoError(t, repo.CreateBackupHistory(ctx, &models.BackupHistory{
		UserID: 10, SessionType: "chat", SessionID: 1, Action: models.BackupActionArchive,
		BackupDate: base, BackupMode: "manual",
	}))

	entries, err := repo.ListHistory(ctx, 9, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint(3), entries[0].SessionID)

	limited, err := repo.ListHistory(ctx, 9, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = repo.FindOwnedHistory(ctx, 10, entries[0].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.DeleteHistory(ctx, &entries[0]))
	_, err = repo.FindOwnedHistory(ctx, 9, entries[0].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
