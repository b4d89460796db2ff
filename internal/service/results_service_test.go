package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmood/emoscope/internal/analysis"
	"github.com/openmood/emoscope/internal/classifier"
	"github.com/openmood/emoscope/internal/contract"
	"github.com/openmood/emoscope/internal/domain"
	"github.com/openmood/emoscope/internal/repository"
	"github.com/openmood/emoscope/internal/service"
	"github.com/openmood/emoscope/internal/testutil"
)

func newServices(t *testing.T) (service.SessionService, service.ResultsService, repository.Store) {
	t.Helper()
	store := testutil.NewTestStore(t)
	sessions := service.NewSessionService(store, classifier.NewStaticClassifier(), nil, nil, nil)
	results := service.NewResultsService(store, nil)
	return sessions, results, store
}

func TestGetQuestionResults_ComputesAndCaches(t *testing.T) {
	sessions, results, store := newServices(t)
	ctx := context.Background()

	session, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Happy, Confidence: 0.9,
	})
	require.NoError(t, err)
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Sad, Confidence: 0.5,
	})
	require.NoError(t, err)

	doc, err := results.GetQuestionResults(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "q-1", doc.QuestionID)
	assert.Equal(t, 2, doc.TotalFrames)
	assert.Equal(t, "Happy", doc.AverageEmotion)
	assert.InDelta(t, 0.7, doc.AverageConfidence, 1e-9)
	assert.Equal(t, analysis.VariabilityStable, doc.Summary.EmotionVariability)

	// The computed document is now stored on the question row.
	question, err := store.Repos().Questions.GetByID(ctx, "q-1")
	require.NoError(t, err)
	assert.NotEmpty(t, question.Results)

	// A second read serves the stored document even after more frames land.
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Fear, Confidence: 0.2,
	})
	require.NoError(t, err)

	again, err := results.GetQuestionResults(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestGetQuestionResults_NoFrames(t *testing.T) {
	sessions, results, store := newServices(t)
	ctx := context.Background()

	session, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Repos().Questions.CreateIfAbsent(ctx, testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-empty"))))

	doc, err := results.GetQuestionResults(ctx, "q-empty")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.TotalFrames)
	assert.Equal(t, contract.NoneLabel, doc.AverageEmotion)
	assert.Equal(t, analysis.NoEmotions, doc.Summary.OverallTrend)
}

func TestGetQuestionResults_NotFound(t *testing.T) {
	_, results, _ := newServices(t)

	_, err := results.GetQuestionResults(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetSessionResults_ActiveSessionGetsLiveSnapshot(t *testing.T) {
	sessions, results, _ := newServices(t)
	ctx := context.Background()

	session, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Happy, Confidence: 0.8,
	})
	require.NoError(t, err)

	doc, err := results.GetSessionResults(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", doc.SessionStatus)
	assert.Equal(t, 1, doc.TotalFrames)
	assert.Equal(t, 1, doc.TotalQuestions)
}

func TestGetSessionResults_CompletedSessionServedFromStore(t *testing.T) {
	sessions, results, _ := newServices(t)
	ctx := context.Background()

	session, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Happy, Confidence: 0.8,
	})
	require.NoError(t, err)

	ended, err := sessions.EndSession(ctx, session.ID)
	require.NoError(t, err)

	doc, err := results.GetSessionResults(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.SessionStatus, "stored results carry no live status marker")
	assert.Equal(t, ended, doc)
}

func TestGetSessionResults_CompletedWithoutStoredResults(t *testing.T) {
	_, results, store := newServices(t)
	ctx := context.Background()

	// A completed session whose results column is empty, as after a crash
	// between the status flip and the document write.
	session := testutil.NewTestSession(
		testutil.WithSessionStatus(domain.SessionCompleted),
		testutil.WithEndedAt(time.Now().UTC().Truncate(time.Second)),
	)
	require.NoError(t, store.Repos().Sessions.Create(ctx, session))
	require.NoError(t, store.Repos().Questions.CreateIfAbsent(ctx,
		testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-1"))))
	require.NoError(t, store.Repos().Frames.Insert(ctx,
		testutil.NewTestFrame(session.ID, domain.Happy, 0.8, testutil.WithQuestion("q-1"))))

	doc, err := results.GetSessionResults(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", doc.SessionStatus)
	assert.Equal(t, 1, doc.TotalFrames)

	// The recomputed document is written back without the status marker.
	stored, err := store.Repos().Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Results)
	assert.NotContains(t, string(stored.Results), "session_status")

	// Subsequent reads serve the stored document.
	again, err := results.GetSessionResults(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, again.SessionStatus)
	assert.Equal(t, doc.TotalFrames, again.TotalFrames)
}

func TestGetSessionResults_NotFound(t *testing.T) {
	_, results, _ := newServices(t)

	_, err := results.GetSessionResults(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListSessions_NewestFirst(t *testing.T) {
	sessions, results, store := newServices(t)
	ctx := context.Background()

	old := testutil.NewTestSession(testutil.WithStartedAt(time.Now().UTC().Add(-time.Hour).Truncate(time.Second)))
	require.NoError(t, store.Repos().Sessions.Create(ctx, old))

	current, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	_, err = sessions.EndSession(ctx, current.ID)
	require.NoError(t, err)

	heads, err := results.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, heads, 2)
	assert.Equal(t, current.ID, heads[0].SessionID)
	assert.Equal(t, "completed", heads[0].Status)
	assert.NotNil(t, heads[0].EndTime)
	assert.Equal(t, old.ID, heads[1].SessionID)
	assert.Nil(t, heads[1].EndTime)
}

func TestListSessionQuestions(t *testing.T) {
	sessions, results, _ := newServices(t)
	ctx := context.Background()

	session, err := sessions.StartSession(ctx)
	require.NoError(t, err)
	_, err = sessions.RecordFrame(ctx, service.RecordFrameInput{
		SessionID: session.ID, QuestionID: "q-1", Emotion: domain.Happy, Confidence: 0.8,
	})
	require.NoError(t, err)

	heads, err := results.ListSessionQuestions(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, heads, 1)
	assert.Equal(t, "q-1", heads[0].QuestionID)
	assert.Equal(t, 1, heads[0].TotalFrames)
	assert.Nil(t, heads[0].Results, "no results before the question is summarized")

	_, err = sessions.EndSession(ctx, session.ID)
	require.NoError(t, err)

	heads, err = results.ListSessionQuestions(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, heads, 1)
	require.NotNil(t, heads[0].Results)
	assert.Equal(t, 1, heads[0].Results.TotalFrames)
}

func TestListSessionQuestions_UnknownSession(t *testing.T) {
	_, results, _ := newServices(t)

	_, err := results.ListSessionQuestions(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
