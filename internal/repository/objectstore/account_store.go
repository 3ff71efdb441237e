// Package objectstore keeps the credential document as one object in remote storage.
package objectstore

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"account-auth/internal/domain"
	"account-auth/internal/repository"
	"account-auth/internal/storage"
)

const contentType = "application/json"

type AccountStore struct {
	storage storage.Service
	bucket  string
	key     string
	logger  *logrus.Logger
}

func NewAccountStore(svc storage.Service, bucket, key string, logger *logrus.Logger) repository.AccountStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &AccountStore{
		storage: svc,
		bucket:  bucket,
		key:     key,
		logger:  logger,
	}
}

// Init is a no-op; the object is created on the first Save.
func (s *AccountStore) Init(ctx context.Context) error {
	return nil
}

func (s *AccountStore) Load(ctx context.Context) (domain.Accounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.storage.GetObject(ctx, s.bucket, s.key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"bucket": s.bucket,
				"key":    s.key,
			}).Warn("read account object, starting empty")
		}
		return domain.Accounts{}, nil
	}

	accounts, err := repository.DecodeAccounts(data)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("parse account object, starting empty")
		return domain.Accounts{}, nil
	}
	return accounts, nil
}

func (s *AccountStore) Save(ctx context.Context, accounts domain.Accounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := repository.EncodeAccounts(accounts)
	if err != nil {
		return err
	}
	return s.storage.PutObject(ctx, s.bucket, s.key, data, contentType)
}
