package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmood/emoscope/internal/repository"
	"github.com/openmood/emoscope/internal/testutil"
)

func TestQuestionRepo_CreateIfAbsent_Idempotent(t *testing.T) {
	store := testutil.NewTestStore(t)
	repos := store.Repos()
	ctx := context.Background()

	session := testutil.NewTestSession()
	require.NoError(t, repos.Sessions.Create(ctx, session))

	question := testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-1"))
	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, question))

	// Second reference with a later timestamp leaves the original row alone.
	dup := testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-1"))
	dup.CreatedAt = question.CreatedAt.Add(time.Hour)
	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, dup))

	got, err := repos.Questions.GetByID(ctx, "q-1")
	require.NoError(t, err)
	assert.True(t, question.CreatedAt.Equal(got.CreatedAt))

	questions, err := repos.Questions.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestQuestionRepo_GetByID_NotFound(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := store.Repos().Questions.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuestionRepo_ListBySession_CreationOrder(t *testing.T) {
	store := testutil.NewTestStore(t)
	repos := store.Repos()
	ctx := context.Background()

	session := testutil.NewTestSession()
	require.NoError(t, repos.Sessions.Create(ctx, session))

	base := time.Now().UTC().Truncate(time.Second)
	second := testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-2"))
	second.CreatedAt = base.Add(time.Minute)
	first := testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-1"))
	first.CreatedAt = base

	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, second))
	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, first))

	questions, err := repos.Questions.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "q-1", questions[0].ID)
	assert.Equal(t, "q-2", questions[1].ID)
}

func TestQuestionRepo_SetResultsAndIncrement(t *testing.T) {
	store := testutil.NewTestStore(t)
	repos := store.Repos()
	ctx := context.Background()

	session := testutil.NewTestSession()
	require.NoError(t, repos.Sessions.Create(ctx, session))
	question := testutil.NewTestQuestion(session.ID)
	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, question))

	require.NoError(t, repos.Questions.IncrementFrameCount(ctx, question.ID))
	require.NoError(t, repos.Questions.IncrementFrameCount(ctx, question.ID))
	require.NoError(t, repos.Questions.SetResults(ctx, question.ID, []byte(`{"total_frames":2}`)))

	got, err := repos.Questions.GetByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FrameCount)
	assert.JSONEq(t, `{"total_frames":2}`, string(got.Results))
}
