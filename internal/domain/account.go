package domain

import (
	"encoding/json"
	"fmt"
)

// Reserved document keys. Everything else in a stored account is a profile field.
const (
	FieldID       = "id"
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldPassword = "password"
)

// Account represents a registered identity.
//
// In the persisted document the hash lives under the "password" key and profile
// fields sit next to the reserved keys, so existing users.json files load unchanged.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Profile      map[string]any
}

// IsReserved reports whether key is owned by the account itself rather than its profile.
func IsReserved(key string) bool {
	switch key {
	case FieldID, FieldEmail, FieldUsername, FieldPassword:
		return true
	}
	return false
}

func (a Account) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(a.Profile)+4)
	for k, v := range a.Profile {
		if IsReserved(k) {
			continue
		}
		doc[k] = v
	}
	doc[FieldID] = a.ID
	doc[FieldEmail] = a.Email
	doc[FieldUsername] = a.Username
	doc[FieldPassword] = a.PasswordHash
	return json.Marshal(doc)
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	var err error
	if a.ID, err = stringField(doc, FieldID); err != nil {
		return err
	}
	if a.Email, err = stringField(doc, FieldEmail); err != nil {
		return err
	}
	if a.Username, err = stringField(doc, FieldUsername); err != nil {
		return err
	}
	if a.PasswordHash, err = stringField(doc, FieldPassword); err != nil {
		return err
	}

	a.Profile = nil
	for k, v := range doc {
		if IsReserved(k) {
			continue
		}
		if a.Profile == nil {
			a.Profile = make(map[string]any)
		}
		a.Profile[k] = v
	}
	return nil
}

func stringField(doc map[string]any, key string) (string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("account field %q: expected string, got %T", key, raw)
	}
	return s, nil
}

// Public returns the account as exposed over the API: profile fields and identity, never the hash.
func (a Account) Public() map[string]any {
	out := make(map[string]any, len(a.Profile)+3)
	for k, v := range a.Profile {
		if IsReserved(k) {
			continue
		}
		out[k] = v
	}
	out[FieldID] = a.ID
	out[FieldEmail] = a.Email
	out[FieldUsername] = a.Username
	return out
}

// Accounts is the full credential set keyed by email.
type Accounts map[string]Account

// FindByIdentifier returns the account whose email or username equals identifier.
// An email match always wins over a username match. Among several username matches
// the one with the lowest email is returned, so the result never depends on map order.
func (a Accounts) FindByIdentifier(identifier string) (*Account, bool) {
	if acc, ok := a[identifier]; ok {
		return &acc, true
	}

	var found *Account
	for email, acc := range a {
		if acc.Username != identifier {
			continue
		}
		if found == nil || email < found.Email {
			match := acc
			found = &match
		}
	}
	return found, found != nil
}

// FindByID returns the account with the given id.
func (a Accounts) FindByID(id string) (*Account, bool) {
	for _, acc := range a {
		if acc.ID == id {
			found := acc
			return &found, true
		}
	}
	return nil, false
}

// UsernameTaken reports whether any account already uses username.
func (a Accounts) UsernameTaken(username string) bool {
	for _, acc := range a {
		if acc.Username == username {
			return true
		}
	}
	return false
}
