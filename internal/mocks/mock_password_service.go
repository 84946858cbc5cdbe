package mocks

import "github.com/you/marketauth/domain"

// MockPasswordService implements domain.PasswordService with a reversible "hash"
// and records what it was asked to do.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	Hashed      []string
	VerifyCalls int
}

// NewMockPasswordService creates a new MockPasswordService
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash records the plaintext and returns "hashed_" + password unless HashFunc is set
func (m *MockPasswordService) Hash(password string) (string, error) {
	m.Hashed = append(m.Hashed, password)
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

// Verify counts the call and matches the "hashed_" prefix unless VerifyFunc is set
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == "hashed_"+password
}

var _ domain.PasswordService = (*MockPasswordService)(nil)
