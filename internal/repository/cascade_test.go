package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmood/emoscope/internal/domain"
	"github.com/openmood/emoscope/internal/repository"
	"github.com/openmood/emoscope/internal/testutil"
)

// Deleting a session must take its questions and frames with it. Purge relies
// entirely on the cascade.
func TestDeleteSession_CascadesToQuestionsAndFrames(t *testing.T) {
	store := testutil.NewTestStore(t)
	repos := store.Repos()
	ctx := context.Background()

	session := testutil.NewTestSession()
	require.NoError(t, repos.Sessions.Create(ctx, session))

	question := testutil.NewTestQuestion(session.ID, testutil.WithQuestionID("q-1"))
	require.NoError(t, repos.Questions.CreateIfAbsent(ctx, question))

	require.NoError(t, repos.Frames.Insert(ctx,
		testutil.NewTestFrame(session.ID, domain.Happy, 0.9, testutil.WithQuestion("q-1"))))
	require.NoError(t, repos.Frames.Insert(ctx,
		testutil.NewTestFrame(session.ID, domain.Sad, 0.4)))

	require.NoError(t, repos.Sessions.Delete(ctx, session.ID))

	_, err := repos.Sessions.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repos.Questions.GetByID(ctx, "q-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	frames, err := repos.Frames.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

// A cascade in one session must not touch another.
func TestDeleteSession_LeavesOtherSessionsAlone(t *testing.T) {
	store := testutil.NewTestStore(t)
	repos := store.Repos()
	ctx := context.Background()

	doomed := testutil.NewTestSession()
	survivor := testutil.NewTestSession()
	require.NoError(t, repos.Sessions.Create(ctx, doomed))
	require.NoError(t, repos.Sessions.Create(ctx, survivor))

	require.NoError(t, repos.Questions.CreateIfAbsent(ctx,
		testutil.NewTestQuestion(survivor.ID, testutil.WithQuestionID("keep-q"))))
	require.NoError(t, repos.Frames.Insert(ctx,
		testutil.NewTestFrame(survivor.ID, domain.Neutral, 0.5, testutil.WithQuestion("keep-q"))))

	require.NoError(t, repos.Sessions.Delete(ctx, doomed.ID))

	_, err := repos.Questions.GetByID(ctx, "keep-q")
	require.NoError(t, err)
	frames, err := repos.Frames.ListBySession(ctx, survivor.ID)
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}
