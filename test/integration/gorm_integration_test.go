package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/entity"
	"org-diagnostics-be/internal/repository/specification"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/pkg/database"
)

// Wiring test against a real Postgres instance. Needs DB_CONNECTION_STRING;
// skipped otherwise.
func TestDiagnosisRepositoryWiring(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DiagnosisSessionRepository())
	assert.NotNil(t, uow.ChatLogRepository())
	assert.NotNil(t, uow.KnowledgeChunkRepository())

	ctx := context.Background()

	t.Run("Session round trip", func(t *testing.T) {
		userId := uuid.New()
		session := &entity.DiagnosisSession{
			Id:           uuid.New(),
			UserId:       userId,
			Status:       constant.SessionStatusActive,
			CurrentStage: constant.StageStrategy,
			Insights:     map[string]*entity.DimensionInsight{},
		}
		sessions := uow.DiagnosisSessionRepository()

		require.NoError(t, sessions.Create(ctx, session))
		defer func() {
			assert.NoError(t, sessions.Delete(ctx, session.Id))
		}()

		require.NoError(t, sessions.UpdateStage(ctx, session.Id, constant.StageStructure))
		require.NoError(t, sessions.UpdateInsight(ctx, session.Id, constant.StageStrategy, &entity.DimensionInsight{
			Score:           72,
			Tags:            []string{"alignment", "cadence"},
			KeyIssues:       []string{"no review cadence"},
			Summary:         "Strategy exists but is not revisited.",
			Recommendations: []string{"quarterly strategy reviews"},
		}))

		got, err := sessions.FindOne(ctx,
			specification.ByID{ID: session.Id},
			specification.UserOwnedBy{UserID: userId},
		)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, constant.StageStructure, got.CurrentStage)
		require.NotNil(t, got.Insights[constant.StageStrategy])
		assert.Equal(t, float64(72), got.Insights[constant.StageStrategy].Score)

		// Ownership scoping holds against a foreign user id.
		foreign, err := sessions.FindOne(ctx,
			specification.ByID{ID: session.Id},
			specification.UserOwnedBy{UserID: uuid.New()},
		)
		require.NoError(t, err)
		assert.Nil(t, foreign)

		require.NoError(t, sessions.Complete(ctx, session.Id, 72, "single dimension assessed"))
		got, err = sessions.FindOne(ctx, specification.ByID{ID: session.Id})
		require.NoError(t, err)
		assert.Equal(t, constant.SessionStatusCompleted, got.Status)
		assert.Equal(t, 72, got.TotalScore)
	})

	t.Run("Transcript query and cascade delete", func(t *testing.T) {
		userId := uuid.New()
		session := &entity.DiagnosisSession{
			Id:           uuid.New(),
			UserId:       userId,
			Status:       constant.SessionStatusActive,
			CurrentStage: constant.StageStrategy,
			Insights:     map[string]*entity.DimensionInsight{},
		}
		require.NoError(t, uow.DiagnosisSessionRepository().Create(ctx, session))

		logs := uow.ChatLogRepository()
		for _, row := range []struct{ role, content string }{
			{constant.ChatRoleSystem, "system preamble"},
			{constant.ChatRoleUser, "How should we set strategy?"},
			{constant.ChatRoleAssistant, "Start with a clear mission."},
		} {
			require.NoError(t, logs.Create(ctx, &entity.ChatLog{
				Id:        uuid.New(),
				SessionId: session.Id,
				Role:      row.role,
				Content:   row.content,
			}))
		}

		visible, err := logs.FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.ExcludeRole{Role: constant.ChatRoleSystem},
			specification.OrderBy{Field: "created_at"},
		)
		require.NoError(t, err)
		require.Len(t, visible, 2)
		assert.Equal(t, constant.ChatRoleUser, visible[0].Role)
		assert.Equal(t, constant.ChatRoleAssistant, visible[1].Role)

		// Session deletion removes the transcript in one transaction.
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		require.NoError(t, txUow.ChatLogRepository().DeleteBySessionId(ctx, session.Id))
		require.NoError(t, txUow.DiagnosisSessionRepository().Delete(ctx, session.Id))
		require.NoError(t, txUow.Commit())

		remaining, err := logs.Count(ctx, specification.BySessionID{SessionID: session.Id})
		require.NoError(t, err)
		assert.Zero(t, remaining)
	})

	t.Run("Knowledge stats query", func(t *testing.T) {
		_, err := uow.KnowledgeChunkRepository().StatsByCategory(ctx)
		assert.NoError(t, err)
	})
}
