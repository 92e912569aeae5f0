package inventory

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workon-sh/workon/internal/github"
	"github.com/workon-sh/workon/internal/scan"
)

func TestMerge(t *testing.T) {
	locals := []scan.LocalProject{
		{Name: "Alpha", Path: "/p/Alpha"},
		{Name: "bravo", Path: "/p/bravo"},
	}
	remotes := []github.RemoteRepository{
		{Name: "alpha", Owner: "me"},
		{Name: "charlie", Owner: "me"},
	}

	views := Merge(locals, remotes)
	require.Len(t, views, 3)

	// Case-folded names join into a single view; local spelling wins.
	assert.Equal(t, "Alpha", views[0].Name)
	assert.True(t, views[0].Synced())
	assert.Equal(t, "synced", views[0].Status())

	assert.Equal(t, "bravo", views[1].Name)
	assert.Nil(t, views[1].Remote)
	assert.Equal(t, "local only", views[1].Status())

	assert.Equal(t, "charlie", views[2].Name)
	assert.Nil(t, views[2].Local)
	assert.Equal(t, "not cloned", views[2].Status())
}

type fakeLister struct {
	repos []github.RemoteRepository
	err   error
}

func (f *fakeLister) FetchAllRepos(ctx context.Context, force bool) ([]github.RemoteRepository, error) {
	return f.repos, f.err
}

type fakeScanner struct {
	projects []scan.LocalProject
	warnings []scan.Warning
	err      error
}

func (f *fakeScanner) Scan() ([]scan.LocalProject, []scan.Warning, error) {
	return f.projects, f.warnings, f.err
}

func TestGather(t *testing.T) {
	g := NewGatherer(
		&fakeLister{repos: []github.RemoteRepository{{Name: "alpha"}}},
		&fakeScanner{
			projects: []scan.LocalProject{{Name: "alpha"}, {Name: "bravo"}},
			warnings: []scan.Warning{{Path: "/p/locked", Reason: "permission denied"}},
		},
		slog.New(slog.DiscardHandler),
	)

	snap, err := g.Gather(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, snap.Views, 2)
	assert.Len(t, snap.Warnings, 1)

	view, ok := snap.Find("ALPHA")
	require.True(t, ok)
	assert.True(t, view.Synced())

	_, ok = snap.Find("missing")
	assert.False(t, ok)
}

func TestGather_PropagatesErrors(t *testing.T) {
	remoteErr := errors.New("boom")
	g := NewGatherer(&fakeLister{err: remoteErr}, &fakeScanner{}, slog.New(slog.DiscardHandler))

	_, err := g.Gather(context.Background(), false)
	assert.ErrorIs(t, err, remoteErr)
}

func TestGatherLocal(t *testing.T) {
	g := NewGatherer(
		&fakeLister{err: errors.New("no creds")},
		&fakeScanner{projects: []scan.LocalProject{{Name: "alpha"}}},
		slog.New(slog.DiscardHandler),
	)

	snap, err := g.GatherLocal(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Views, 1)
	assert.Equal(t, "local only", snap.Views[0].Status())
}
