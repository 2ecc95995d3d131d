package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

type LocalStorage struct {
	logger zerolog.Logger
	dir    string
}

// NewLocal creates dir if needed and stores objects as plain files in it.
func NewLocal(logger zerolog.Logger, dir string) (*LocalStorage, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{
		logger: logger,
		dir:    dir,
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if err := validateName(name); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to write file")
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Msg("saved file")
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Msg("removed file")
	return nil
}
