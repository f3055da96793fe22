package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-therapy-be/internal/entity"
	"ai-therapy-be/internal/repository/specification"
	"ai-therapy-be/internal/repository/unitofwork"
	"ai-therapy-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.TherapySessionRepository())
	assert.NotNil(t, uow.TherapyMessageRepository())

	sqlDB, _ := gormDB.DB()
	assert.NoError(t, sqlDB.Ping())

	t.Run("Check User Repository", func(t *testing.T) {
		count, err := uow.UserRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("User count: %d", count)
	})

	t.Run("Transactional turn pair append", func(t *testing.T) {
		ctx := context.Background()

		user := &entity.User{
			Id:       uuid.New(),
			Email:    "test-integration-" + uuid.NewString() + "@example.com",
			FullName: "Integration Test User",
			Status:   entity.UserStatusActive,
		}
		require.NoError(t, uow.UserRepository().Create(ctx, user))

		session := &entity.TherapySession{
			Id:        uuid.New(),
			Token:     uuid.NewString(),
			UserId:    user.Id,
			Status:    entity.SessionStatusActive,
			StartedAt: time.Now(),
		}
		require.NoError(t, uow.TherapySessionRepository().Create(ctx, session))

		tx := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		defer tx.Rollback()

		analysis := entity.DefaultAnalysis()
		now := time.Now()
		pair := []*entity.TherapyMessage{
			{Id: uuid.New(), SessionId: session.Id, Role: "user", Content: "integration ping", CreatedAt: now},
			{Id: uuid.New(), SessionId: session.Id, Role: "assistant", Content: "integration pong", Metadata: &analysis, CreatedAt: now},
		}
		require.NoError(t, tx.TherapyMessageRepository().CreateBulk(ctx, pair))
		require.NoError(t, tx.Commit())

		stored, err := uow.TherapyMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
			specification.OrderBy{Field: "seq", Desc: false},
		)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		// Shared timestamp, so the seq tiebreaker must keep the user turn first.
		assert.Equal(t, "user", stored[0].Role)
		assert.Equal(t, "assistant", stored[1].Role)
		assert.Less(t, stored[0].Seq, stored[1].Seq)
		assert.Nil(t, stored[0].Metadata)
		require.NotNil(t, stored[1].Metadata)
		assert.Equal(t, analysis, *stored[1].Metadata)
	})

	t.Run("Owner-scoped session lookup", func(t *testing.T) {
		ctx := context.Background()

		found, err := uow.TherapySessionRepository().FindOne(ctx,
			specification.ByToken{Token: uuid.NewString()},
			specification.OwnedBy{UserID: uuid.New()},
		)
		assert.NoError(t, err)
		assert.Nil(t, found)
	})
}
