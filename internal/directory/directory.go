// Package directory is the account registry: students, vendors, counselors
// and admins. It supplies identity, role and balance to the other components
// and checks credentials, but contains no business rules of its own.
package directory

import (
	"errors"

	"blockfix/backend/internal/config"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidRole        = errors.New("role not allowed for signup")
)

// Service manages accounts.
type Service struct {
	store storage.Storage
}

// NewService creates a new directory service.
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Signup registers a student or vendor with the role's starting balance.
// Other roles are provisioned by an administrator, never self-registered.
func (s *Service) Signup(email, password, name string, role models.Role) (*models.Account, error) {
	if role != models.RoleStudent && role != models.RoleVendor {
		return nil, ErrInvalidRole
	}
	return s.create(email, password, name, role)
}

// Login checks credentials and returns the account. Disabled accounts cannot
// log in.
func (s *Service) Login(email, password string) (*models.Account, error) {
	account, err := s.store.GetAccountByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if account.Disabled {
		return nil, ErrAccountDisabled
	}
	return account, nil
}

// AddVendor provisions a vendor account with the default password.
func (s *Service) AddVendor(email, name string) (*models.Account, error) {
	return s.create(email, config.DefaultVendorPassword, name, models.RoleVendor)
}

// AddCounselor provisions a counselor account with the default password.
func (s *Service) AddCounselor(email, name string) (*models.Account, error) {
	return s.create(email, config.DefaultCounselorPassword, name, models.RoleCounselor)
}

// Provision creates an account of any role with an explicit password. Used
// by startup seeding and the operator CLI.
func (s *Service) Provision(email, password, name string, role models.Role) error {
	_, err := s.create(email, password, name, role)
	return err
}

// AccountByID looks up one account.
func (s *Service) AccountByID(id string) (*models.Account, error) {
	account, err := s.store.GetAccountByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return account, err
}

// AccountsByRole lists all accounts holding a role.
func (s *Service) AccountsByRole(role models.Role) ([]models.Account, error) {
	return s.store.GetAccountsByRole(role)
}

// Disable soft-disables an account. Accounts are never deleted: historical
// complaints reference them by identity.
func (s *Service) Disable(id string) error {
	account, err := s.AccountByID(id)
	if err != nil {
		return err
	}
	account.Disabled = true
	return s.store.UpdateAccount(account)
}

func (s *Service) create(email, password, name string, role models.Role) (*models.Account, error) {
	if _, err := s.store.GetAccountByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	switch role {
	case models.RoleStudent:
		account.Balance = config.StudentStartingBalance
	case models.RoleVendor:
		account.Balance = config.VendorStartingBalance
		account.ReputationScore = config.InitialReputation
	}

	if err := s.store.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}
