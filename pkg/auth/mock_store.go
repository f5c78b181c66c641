package auth

import "sync"

// MockStore is an in-memory credential store for testing
type MockStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account

	// Failure injection
	StoreErr    error
	RetrieveErr error
	ListErr     error
	DeleteErr   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[string]*Account),
	}
}

// Store saves credentials in memory
func (m *MockStore) Store(account *Account) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if account == nil || account.UserID == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc := *account
	m.accounts[account.UserID] = &acc
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(userID string) (*Account, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}
	if userID == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, exists := m.accounts[userID]
	if !exists {
		return nil, ErrCredentialsNotFound
	}

	acc := *account
	return &acc, nil
}

// List returns all stored accounts
func (m *MockStore) List() ([]*Account, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var accounts []*Account
	for _, account := range m.accounts {
		acc := *account
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(userID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if userID == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[userID]; !exists {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, userID)
	return nil
}

// Exists checks if credentials exist in memory
func (m *MockStore) Exists(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.accounts[userID]
	return exists
}
