package source

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/netbirdio/selfupdate/progress"
	"github.com/netbirdio/selfupdate/version"
)

// Aggregate combines several sources. Versions are the union of all members;
// a download is served by the first member, in order, that lists the version.
// Nothing is cached, so every resolution queries the members again.
type Aggregate struct {
	sources []Source
}

func NewAggregate(sources ...Source) *Aggregate {
	return &Aggregate{sources: sources}
}

func (a *Aggregate) ListVersions(ctx context.Context) (*version.Set, error) {
	var (
		mu    sync.Mutex
		union = version.NewSet()
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range a.sources {
		s := s
		g.Go(func() error {
			set, err := s.ListVersions(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			union.Union(set)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union, nil
}

func (a *Aggregate) Download(ctx context.Context, v version.Version, destPath string, reporter progress.Reporter) error {
	for i, s := range a.sources {
		set, err := s.ListVersions(ctx)
		if err != nil {
			return err
		}
		if !set.Contains(v) {
			continue
		}
		log.Debugf("version %s resolved by source #%d", v, i)
		return s.Download(ctx, v, destPath, reporter)
	}
	return notFound(v)
}
