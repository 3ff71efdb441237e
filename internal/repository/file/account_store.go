// Package file keeps the credential set in a JSON document on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"account-auth/internal/domain"
	"account-auth/internal/repository"
)

type AccountStore struct {
	path   string
	logger *logrus.Logger
}

func NewAccountStore(path string, logger *logrus.Logger) repository.AccountStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &AccountStore{path: path, logger: logger}
}

// Init makes sure the document's directory exists.
func (s *AccountStore) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return nil
}

func (s *AccountStore) Load(ctx context.Context) (domain.Accounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("path", s.path).Warn("read account store, starting empty")
		}
		return domain.Accounts{}, nil
	}

	accounts, err := repository.DecodeAccounts(data)
	if err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("parse account store, starting empty")
		return domain.Accounts{}, nil
	}
	return accounts, nil
}

// Save writes to a sibling temp file and renames it over the document.
func (s *AccountStore) Save(ctx context.Context, accounts domain.Accounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := repository.EncodeAccounts(accounts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
