package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/models"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailRequired         = errors.New("the given email must be set")
	ErrSuperuserFlag         = errors.New("superuser must have is_superuser=true")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrUserNotFound          = errors.New("user not found")
	ErrCannotDeleteSentinel  = errors.New("the deleted-user placeholder cannot be removed")
	ErrFailedToHashPassword  = errors.New("failed to hash password")
	ErrFailedToCreateUser    = errors.New("failed to create user")
	ErrFailedToCreateProfile = errors.New("failed to create profile")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	sentinel *models.User
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

type userOptions struct {
	superuser *bool
}

// UserOption sets an optional field on a user being created.
type UserOption func(*userOptions)

// WithSuperuser sets the superuser flag explicitly.
func WithSuperuser(v bool) UserOption {
	return func(o *userOptions) { o.superuser = &v }
}

// NormalizeEmail trims surrounding space and lower-cases the domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// CreateUser creates a regular user and their profile. An empty password
// stores an unusable hash.
func (s *AuthService) CreateUser(email, password string, opts ...UserOption) (*models.User, error) {
	o := userOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.superuser == nil {
		o.superuser = boolPtr(false)
	}
	return s.createUser(email, password, o)
}

// CreateSuperuser creates a user whose superuser flag defaults to true;
// explicitly passing WithSuperuser(false) is rejected.
func (s *AuthService) CreateSuperuser(email, password string, opts ...UserOption) (*models.User, error) {
	o := userOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.superuser == nil {
		o.superuser = boolPtr(true)
	}
	if !*o.superuser {
		return nil, ErrSuperuserFlag
	}
	return s.createUser(email, password, o)
}

func (s *AuthService) createUser(email, password string, o userOptions) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		IsSuperuser:  *o.superuser,
		IsActive:     true,
	}

	if err := s.userRepo.CreateWithProfile(user, &models.Profile{Image: constants.DefaultProfileImage}); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
		case errors.Is(err, repository.ErrCreateProfile):
			return nil, ErrFailedToCreateProfile
		default:
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return models.UnusablePasswordPrefix, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func boolPtr(v bool) *bool {
	return &v
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Password string
}

// Signup registers a regular user from the public API.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	return s.CreateUser(email, input.Password)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.IsSentinel() || !user.IsActive || !user.HasUsablePassword() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// EnsureSentinelUser makes sure the "deleted" placeholder account exists.
// It runs once at startup.
func (s *AuthService) EnsureSentinelUser() (*models.User, error) {
	if s.sentinel != nil {
		return s.sentinel, nil
	}
	user, err := s.userRepo.EnsureSentinel()
	if err != nil {
		return nil, fmt.Errorf("failed to ensure sentinel user: %w", err)
	}
	s.sentinel = user
	return user, nil
}

// DeleteUser removes a user. Groups they created and messages they wrote are
// handed to the sentinel account.
func (s *AuthService) DeleteUser(id uint64) error {
	sentinel, err := s.EnsureSentinelUser()
	if err != nil {
		return err
	}
	if id == sentinel.ID {
		return ErrCannotDeleteSentinel
	}

	if err := s.userRepo.DeleteReassigning(id, sentinel.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
