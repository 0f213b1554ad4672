package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of artifact files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FileStore keeps one file per symbol and date range in a directory. A new
// analysis of the same range replaces the previous file.
type FileStore struct {
	dir    string
	format Format
}

// NewFileStore creates a store under dir. An empty format means JSON.
func NewFileStore(dir string, format Format) (*FileStore, error) {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported artifact format: %s", format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeArtifactWriteFailed, err, "failed to create %s", dir)
	}

	return &FileStore{dir: dir, format: format}, nil
}

// Save writes the artifact through a temporary file so readers never see a
// partial one.
func (s *FileStore) Save(_ context.Context, analysis types.Analysis) (string, error) {
	data, err := s.encode(analysis)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to encode analysis", err)
	}

	path := filepath.Join(s.dir, ArtifactName(analysis)+"."+string(s.format))

	tmp, err := os.CreateTemp(s.dir, ".analysis-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to create temporary file", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to write analysis", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to write analysis", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return "", errors.Wrap(errors.ErrCodeArtifactWriteFailed, "failed to move analysis into place", err)
	}

	return path, nil
}

// Get scans the directory for the artifact with the given id.
func (s *FileStore) Get(ctx context.Context, id string) (types.Analysis, error) {
	all, err := s.List(ctx, "")
	if err != nil {
		return types.Analysis{}, err
	}

	for _, analysis := range all {
		if analysis.ID == id {
			if err := checkCompatible(analysis); err != nil {
				return types.Analysis{}, err
			}

			return analysis, nil
		}
	}

	return types.Analysis{}, notFound(id)
}

// List decodes every artifact file in the directory. Files that fail to
// decode are skipped.
func (s *FileStore) List(_ context.Context, symbol string) ([]types.Analysis, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", s.dir)
	}

	analyses := []types.Analysis{}
	suffix := "_analysis." + string(s.format)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		analysis, err := s.decode(data)
		if err != nil {
			continue
		}

		if symbol != "" && !strings.EqualFold(analysis.Symbol, symbol) {
			continue
		}

		analyses = append(analyses, analysis)
	}

	newestFirst(analyses)

	return analyses, nil
}

func (s *FileStore) encode(analysis types.Analysis) ([]byte, error) {
	if s.format == FormatYAML {
		return yaml.Marshal(analysis)
	}

	return json.MarshalIndent(analysis, "", "  ")
}

func (s *FileStore) decode(data []byte) (types.Analysis, error) {
	var analysis types.Analysis

	var err error
	if s.format == FormatYAML {
		err = yaml.Unmarshal(data, &analysis)
	} else {
		err = json.Unmarshal(data, &analysis)
	}

	return analysis, err
}
