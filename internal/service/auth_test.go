package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/axon-labs/axon/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByID(ctx context.Context, id string) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestAuthService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewAuthService(mockUserRepo, new(MockAPIKeyRepository), NewMockUUIDGenerator("user-id-1"))

		mockUserRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, domain.ErrUserNotFound)
		mockUserRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == "user-id-1" && u.Email == "ada@example.com" && u.Name == "Ada"
		})).Return(nil)

		user, err := service.CreateUser(ctx, "ada@example.com", "Ada")

		require.NoError(t, err)
		assert.Equal(t, "user-id-1", user.ID)
		assert.Equal(t, "ada@example.com", user.Email)
		mockUserRepo.AssertExpectations(t)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewAuthService(mockUserRepo, new(MockAPIKeyRepository), NewMockUUIDGenerator())

		_, err := service.CreateUser(ctx, "", "Ada")

		assert.Error(t, err)
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		service := NewAuthService(mockUserRepo, new(MockAPIKeyRepository), NewMockUUIDGenerator())

		mockUserRepo.On("GetByEmail", mock.Anything, "ada@example.com").Return(&domain.User{
			ID:    "existing",
			Email: "ada@example.com",
		}, nil)

		_, err := service.CreateUser(ctx, "ada@example.com", "Ada")

		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_CreateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("returns token and stores only its hash", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(mockUserRepo, mockKeyRepo, NewMockUUIDGenerator("key-id-1"))

		mockUserRepo.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1"}, nil)

		var stored *domain.APIKey
		mockKeyRepo.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.APIKey) bool {
			stored = k
			return k.ID == "key-id-1" && k.UserID == "user-1" && k.Name == "laptop"
		})).Return(nil)

		token, err := service.CreateAPIKey(ctx, "user-1", "laptop")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token, "axn_"))
		assert.Len(t, token, 68)
		assert.True(t, IsValidAPIToken(token))

		require.NotNil(t, stored)
		assert.NotEqual(t, token, stored.KeyHash)
		assert.Len(t, stored.KeyHash, 64)
		assert.NotContains(t, stored.KeyHash, "axn_")
	})

	t.Run("requires user ID and name", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), new(MockAPIKeyRepository), NewMockUUIDGenerator())

		_, err := service.CreateAPIKey(ctx, "", "laptop")
		assert.Error(t, err)

		_, err = service.CreateAPIKey(ctx, "user-1", "")
		assert.Error(t, err)
	})

	t.Run("fails when user does not exist", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(mockUserRepo, mockKeyRepo, NewMockUUIDGenerator())

		mockUserRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrUserNotFound)

		_, err := service.CreateAPIKey(ctx, "missing", "laptop")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		mockKeyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_CreateAPIKeyWithToken(t *testing.T) {
	ctx := context.Background()
	validToken := "axn_" + strings.Repeat("ab12", 16)

	t.Run("stores hash of supplied token", func(t *testing.T) {
		mockUserRepo := new(MockUserRepository)
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(mockUserRepo, mockKeyRepo, NewMockUUIDGenerator("key-id-1"))

		mockUserRepo.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1"}, nil)
		mockKeyRepo.On("Create", mock.Anything, mock.MatchedBy(func(k *domain.APIKey) bool {
			return k.UserID == "user-1" && k.Name == "bootstrap" && k.KeyHash != validToken
		})).Return(nil)

		err := service.CreateAPIKeyWithToken(ctx, "user-1", "bootstrap", validToken)

		require.NoError(t, err)
		mockKeyRepo.AssertExpectations(t)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		err := service.CreateAPIKeyWithToken(ctx, "user-1", "bootstrap", "not-a-token")

		assert.Error(t, err)
		mockKeyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_ValidateAPIKey(t *testing.T) {
	ctx := context.Background()
	token := "axn_" + strings.Repeat("ab12", 16)

	t.Run("resolves token to user ID", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		mockKeyRepo.On("GetByHash", mock.Anything, mock.AnythingOfType("string")).Return(&domain.APIKey{
			ID:     "key-1",
			UserID: "user-1",
		}, nil)

		userID, err := service.ValidateAPIKey(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("rejects malformed token without hitting repo", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		_, err := service.ValidateAPIKey(ctx, "garbage")

		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
		mockKeyRepo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
	})

	t.Run("maps unknown hash to invalid key", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		mockKeyRepo.On("GetByHash", mock.Anything, mock.AnythingOfType("string")).Return(nil, domain.ErrAPIKeyNotFound)

		_, err := service.ValidateAPIKey(ctx, token)

		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
	})

	t.Run("rejects revoked key", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		revokedAt := time.Now().UTC().Add(-time.Hour)
		mockKeyRepo.On("GetByHash", mock.Anything, mock.AnythingOfType("string")).Return(&domain.APIKey{
			ID:        "key-1",
			UserID:    "user-1",
			RevokedAt: &revokedAt,
		}, nil)

		_, err := service.ValidateAPIKey(ctx, token)

		assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
	})
}

func TestAuthService_RevokeAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes by ID", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		mockKeyRepo.On("Revoke", mock.Anything, "key-1").Return(nil)

		err := service.RevokeAPIKey(ctx, "key-1")

		require.NoError(t, err)
		mockKeyRepo.AssertExpectations(t)
	})

	t.Run("requires key ID", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), new(MockAPIKeyRepository), NewMockUUIDGenerator())

		err := service.RevokeAPIKey(ctx, "")

		assert.Error(t, err)
	})
}

func TestAuthService_ListAPIKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("lists keys for user", func(t *testing.T) {
		mockKeyRepo := new(MockAPIKeyRepository)
		service := NewAuthService(new(MockUserRepository), mockKeyRepo, NewMockUUIDGenerator())

		mockKeyRepo.On("GetByUserID", mock.Anything, "user-1").Return([]*domain.APIKey{
			{ID: "key-2", UserID: "user-1"},
			{ID: "key-1", UserID: "user-1"},
		}, nil)

		keys, err := service.ListAPIKeys(ctx, "user-1")

		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("requires user ID", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), new(MockAPIKeyRepository), NewMockUUIDGenerator())

		_, err := service.ListAPIKeys(ctx, "")

		assert.Error(t, err)
	})
}

func TestIsValidAPIToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid lowercase hex", "axn_" + strings.Repeat("a1b2", 16), true},
		{"valid uppercase hex", "axn_" + strings.Repeat("A1B2", 16), true},
		{"missing prefix", strings.Repeat("a1b2", 16), false},
		{"wrong prefix", "key_" + strings.Repeat("a1b2", 16), false},
		{"too short", "axn_" + strings.Repeat("a1b2", 15), false},
		{"too long", "axn_" + strings.Repeat("a1b2", 16) + "ff", false},
		{"non-hex characters", "axn_" + strings.Repeat("z1b2", 16), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAPIToken(tt.token))
		})
	}
}
