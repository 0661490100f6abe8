package testutil

import (
	"context"

	"github.com/peerquest-lab/backend/config"
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/logger"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	User1 = entity.User{
		Base:                entity.Base{ID: "user1"},
		Name:                "requestor",
		QuestCreationPoints: 10,
	}

	User2 = entity.User{
		Base:                entity.Base{ID: "user2"},
		Name:                "performer",
		QuestCreationPoints: 10,
	}

	User3 = entity.User{
		Base:                entity.Base{ID: "user3"},
		Name:                "bystander",
		QuestCreationPoints: 10,
	}
)

// NewMockContext returns a context carrying default configs, a silent logger
// and an in-memory database, ready for repositories and domains.
func NewMockContext() context.Context {
	ctx := xcontext.WithConfigs(context.Background(), config.Default())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// The in-memory database lives in a single connection; a second
	// connection would silently get its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	return xcontext.WithDB(ctx, db)
}

func NewMockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}

// CreateFixtureDb migrates the tables of the context database and inserts the
// sample users.
func CreateFixtureDb(ctx context.Context) {
	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	userRepo := repository.NewUserRepository()
	for _, user := range []entity.User{User1, User2, User3} {
		user := user
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}
