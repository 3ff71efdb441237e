package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"account-auth/internal/domain"
)

// AccountStore persists the full credential set as one document.
//
// Load never fails for missing or unreadable state: it yields an empty set so a first
// run can start from nothing. Only a cancelled context is reported as an error.
// Save overwrites the whole document.
type AccountStore interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) (domain.Accounts, error)
	Save(ctx context.Context, accounts domain.Accounts) error
}

// EncodeAccounts renders the credential set the way it is stored on every backend.
func EncodeAccounts(accounts domain.Accounts) ([]byte, error) {
	if accounts == nil {
		accounts = domain.Accounts{}
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode accounts: %w", err)
	}
	return data, nil
}

// DecodeAccounts parses a stored document. An empty document is an empty set.
func DecodeAccounts(data []byte) (domain.Accounts, error) {
	accounts := domain.Accounts{}
	if len(data) == 0 {
		return accounts, nil
	}
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	if accounts == nil {
		accounts = domain.Accounts{}
	}
	return accounts, nil
}
