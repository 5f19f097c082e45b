package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Stores groups the repositories that share one connection or transaction.
type Stores struct {
	Chats      ChatRepository
	GroupChats GroupChatRepository
	Messages   MessageRepository
	Swipes     SwipeRepository
	Backups    BackupRepository
}

func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Chats:      NewChatRepository(db),
		GroupChats: NewGroupChatRepository(db),
		Messages:   NewMessageRepository(db),
		Swipes:     NewSwipeRepository(db),
		Backups:    NewBackupRepository(db),
	}
}

// UnitOfWork hands out repositories, either bound to the plain connection or
// to a transaction that commits only if fn returns nil.
type UnitOfWork interface {
	Stores() *Stores
	Transaction(ctx context.Context, fn func(stores *Stores) error) error
}

type gormUnitOfWork struct {
	db     *gorm.DB
	stores *Stores
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db, stores: NewStores(db)}
}

func (u *gormUnitOfWork) Stores() *Stores {
	return u.stores
}

func (u *gormUnitOfWork) Transaction(ctx context.Context, fn func(stores *Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStores(tx))
	})
}
