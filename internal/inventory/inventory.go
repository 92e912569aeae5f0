// Package inventory merges the remote and local project inventories into
// the read model the resolver and reconciler work against.
package inventory

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/workon-sh/workon/internal/github"
	"github.com/workon-sh/workon/internal/scan"
)

// ProjectView is the merged view of one named project. Either side may be
// nil; the join key is the case-folded name, so there is at most one view
// per name in any snapshot.
type ProjectView struct {
	Name   string
	Local  *scan.LocalProject
	Remote *github.RemoteRepository
}

// Synced reports whether the project exists both locally and remotely.
func (v ProjectView) Synced() bool {
	return v.Local != nil && v.Remote != nil
}

// Status renders the view's sync state for display.
func (v ProjectView) Status() string {
	switch {
	case v.Synced():
		return "synced"
	case v.Remote != nil:
		return "not cloned"
	default:
		return "local only"
	}
}

// Merge joins local projects and remote repositories by case-folded name.
// The display name of a both-sided view is the local directory name, since
// that is the path the user will actually type.
func Merge(locals []scan.LocalProject, remotes []github.RemoteRepository) []ProjectView {
	byKey := make(map[string]*ProjectView, len(locals)+len(remotes))

	for i := range locals {
		l := &locals[i]
		byKey[strings.ToLower(l.Name)] = &ProjectView{Name: l.Name, Local: l}
	}
	for i := range remotes {
		r := &remotes[i]
		key := strings.ToLower(r.Name)
		if view, ok := byKey[key]; ok {
			view.Remote = r
			continue
		}
		byKey[key] = &ProjectView{Name: r.Name, Remote: r}
	}

	views := make([]ProjectView, 0, len(byKey))
	for _, v := range byKey {
		views = append(views, *v)
	}
	sort.Slice(views, func(i, j int) bool {
		return strings.ToLower(views[i].Name) < strings.ToLower(views[j].Name)
	})
	return views
}

// RemoteLister is the slice of the github client the gatherer needs.
type RemoteLister interface {
	FetchAllRepos(ctx context.Context, force bool) ([]github.RemoteRepository, error)
}

// LocalScanner is the slice of the scanner the gatherer needs.
type LocalScanner interface {
	Scan() ([]scan.LocalProject, []scan.Warning, error)
}

// Snapshot is one consistent merged inventory. It is gathered once per
// command invocation and never re-fetched mid-reconciliation.
type Snapshot struct {
	Views    []ProjectView
	Warnings []scan.Warning
}

// Find returns the view for name, matched case-insensitively.
func (s *Snapshot) Find(name string) (ProjectView, bool) {
	for _, v := range s.Views {
		if strings.EqualFold(v.Name, name) {
			return v, true
		}
	}
	return ProjectView{}, false
}

type Gatherer struct {
	remote RemoteLister
	local  LocalScanner
	logger *slog.Logger
}

func NewGatherer(remote RemoteLister, local LocalScanner, logger *slog.Logger) *Gatherer {
	return &Gatherer{remote: remote, local: local, logger: logger}
}

// Gather fetches the remote inventory and scans the local one concurrently,
// joins both, and returns the merged snapshot.
func (g *Gatherer) Gather(ctx context.Context, force bool) (*Snapshot, error) {
	var (
		remotes  []github.RemoteRepository
		locals   []scan.LocalProject
		warnings []scan.Warning
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		remotes, err = g.remote.FetchAllRepos(ctx, force)
		return err
	})
	eg.Go(func() error {
		var err error
		locals, warnings, err = g.local.Scan()
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{Views: Merge(locals, remotes), Warnings: warnings}
	g.logger.Debug("gathered inventory", "local", len(locals), "remote", len(remotes), "merged", len(snap.Views))
	return snap, nil
}

// GatherLocal builds a snapshot from the local scan only, for commands that
// must keep working without API credentials.
func (g *Gatherer) GatherLocal(ctx context.Context) (*Snapshot, error) {
	locals, warnings, err := g.local.Scan()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Views: Merge(locals, nil), Warnings: warnings}, nil
}
