package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/internal/version"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// Store persists analysis artifacts.
type Store interface {
	// Save writes the artifact and returns where it was written.
	Save(ctx context.Context, analysis types.Analysis) (string, error)
	// Get returns the artifact with the given id, or an ErrCodeArtifactNotFound error.
	Get(ctx context.Context, id string) (types.Analysis, error)
	// List returns the artifacts for symbol, newest first. An empty symbol lists all.
	List(ctx context.Context, symbol string) ([]types.Analysis, error)
}

// ArtifactName is {symbol}_{start}_{end}_analysis.
func ArtifactName(analysis types.Analysis) string {
	return fmt.Sprintf("%s_%s_%s_analysis", analysis.Symbol, analysis.StartDate, analysis.EndDate)
}

func notFound(id string) error {
	return errors.Newf(errors.ErrCodeArtifactNotFound, "analysis %s not found", id)
}

func checkCompatible(analysis types.Analysis) error {
	if err := version.CheckArtifactCompatibility(version.GetVersion(), analysis.Version); err != nil {
		return errors.Wrapf(errors.ErrCodeArtifactIncompatible, err, "analysis %s", analysis.ID)
	}

	return nil
}

func newestFirst(analyses []types.Analysis) {
	sort.SliceStable(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
	})
}

// MultiStore saves to every store and reads from the first.
type MultiStore struct {
	stores []Store
}

// NewMultiStore combines primary with mirrors that receive every save.
func NewMultiStore(primary Store, mirrors ...Store) *MultiStore {
	return &MultiStore{stores: append([]Store{primary}, mirrors...)}
}

// Save writes to all stores and returns the primary location.
func (m *MultiStore) Save(ctx context.Context, analysis types.Analysis) (string, error) {
	var location string

	for i, s := range m.stores {
		loc, err := s.Save(ctx, analysis)
		if err != nil {
			return "", err
		}

		if i == 0 {
			location = loc
		}
	}

	return location, nil
}

func (m *MultiStore) Get(ctx context.Context, id string) (types.Analysis, error) {
	return m.stores[0].Get(ctx, id)
}

func (m *MultiStore) List(ctx context.Context, symbol string) ([]types.Analysis, error) {
	return m.stores[0].List(ctx, symbol)
}
