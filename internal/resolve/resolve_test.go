package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workon-sh/workon/internal/github"
	"github.com/workon-sh/workon/internal/inventory"
	"github.com/workon-sh/workon/internal/scan"
)

func views(names ...string) []inventory.ProjectView {
	out := make([]inventory.ProjectView, 0, len(names))
	for _, n := range names {
		out = append(out, inventory.ProjectView{Name: n})
	}
	return out
}

func TestResolve_ExactMatchShortCircuits(t *testing.T) {
	r := New(99) // threshold must be irrelevant for exact matches

	res, err := r.Resolve("Django-REST", views("django-rest", "flask-app"))
	require.NoError(t, err)
	assert.Equal(t, "django-rest", res.Best.Name)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Exact)
	assert.Empty(t, res.Alternatives)
}

func TestResolve_FuzzyTypo(t *testing.T) {
	r := New(60)

	res, err := r.Resolve("djago", views("django-rest", "flask-app"))
	if err != nil {
		// If the typo falls under the threshold we still want the
		// typed error rather than something opaque.
		var nm *NoMatchError
		require.True(t, errors.As(err, &nm))
		t.Fatalf("expected djago to score above 60 against django-rest, got best score %d", nm.BestScore)
	}
	assert.Equal(t, "django-rest", res.Best.Name)
	assert.GreaterOrEqual(t, res.Score, 60)
	assert.False(t, res.Exact)
}

func TestResolve_NoMatch(t *testing.T) {
	r := New(60)

	_, err := r.Resolve("zzzzzz", views("django-rest", "flask-app"))
	require.Error(t, err)

	var nm *NoMatchError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, "zzzzzz", nm.Query)
	assert.Equal(t, 60, nm.Threshold)
	assert.Less(t, nm.BestScore, 60)
}

func TestResolve_PunctuationInsensitive(t *testing.T) {
	r := New(90)

	res, err := r.Resolve("my project", views("my-project", "other"))
	require.NoError(t, err)
	assert.Equal(t, "my-project", res.Best.Name)
	assert.Equal(t, 100, res.Score)
	assert.False(t, res.Exact)
}

func TestResolve_TieBreaks(t *testing.T) {
	r := New(10)

	local := scan.LocalProject{Name: "abcx"}
	remote := github.RemoteRepository{Name: "abcx"}
	vs := []inventory.ProjectView{
		{Name: "abcy"},
		{Name: "abcx", Local: &local, Remote: &remote},
	}

	// Same distance from the query: the synced view must win.
	res, err := r.Resolve("abcz", vs)
	require.NoError(t, err)
	assert.Equal(t, "abcx", res.Best.Name)
	assert.True(t, res.Best.Synced())

	// Neither synced, same score: shorter name, then lexicographic.
	res, err = r.Resolve("abc", views("abcd", "abce", "abcde"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", res.Best.Name)
}

func TestResolve_Deterministic(t *testing.T) {
	r := New(10)
	vs := views("alpha", "alphabet", "alpine", "beta")

	first, err := r.Resolve("alph", vs)
	require.NoError(t, err)

	for range 10 {
		again, err := r.Resolve("alph", vs)
		require.NoError(t, err)
		assert.Equal(t, first.Best.Name, again.Best.Name)
		assert.Equal(t, first.Score, again.Score)
		require.Equal(t, len(first.Alternatives), len(again.Alternatives))
		for i := range first.Alternatives {
			assert.Equal(t, first.Alternatives[i].View.Name, again.Alternatives[i].View.Name)
			assert.Equal(t, first.Alternatives[i].Score, again.Alternatives[i].Score)
		}
	}
}

func TestResolve_AlternativesOrdered(t *testing.T) {
	r := New(1)

	res, err := r.Resolve("alpha", views("alpha1", "alphabet", "zeta"))
	require.NoError(t, err)
	require.Len(t, res.Alternatives, 2)
	assert.GreaterOrEqual(t, res.Score, res.Alternatives[0].Score)
	assert.GreaterOrEqual(t, res.Alternatives[0].Score, res.Alternatives[1].Score)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "myproject", normalize("My-Project"))
	assert.Equal(t, "v2api", normalize("v2_api!"))
}
