package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"account-auth/internal/domain"
	"account-auth/internal/repository"
)

const createAccountDocumentsTable = `
CREATE TABLE IF NOT EXISTS account_documents (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// documentName is the row holding the credential set.
const documentName = "accounts"

// AccountStore keeps the credential document in a single sqlite row.
type AccountStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAccountStore(db *sql.DB, logger *logrus.Logger) repository.AccountStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &AccountStore{db: db, logger: logger}
}

func (s *AccountStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createAccountDocumentsTable); err != nil {
		return fmt.Errorf("create account_documents table: %w", err)
	}
	return nil
}

func (s *AccountStore) Load(ctx context.Context) (domain.Accounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
SELECT body
FROM account_documents
WHERE name = ?`,
		documentName,
	).Scan(&body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.WithError(err).Warn("read account document, starting empty")
		}
		return domain.Accounts{}, nil
	}

	accounts, err := repository.DecodeAccounts([]byte(body))
	if err != nil {
		s.logger.WithError(err).Warn("parse account document, starting empty")
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO account_documents (name, body, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		documentName,
		string(data),
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("write account document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account document: %w", err)
	}
	return nil
}
