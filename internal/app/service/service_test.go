package service

import (
	"testing"
	"time"

	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/logger"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	store *repository.MemoryStore
	auth  *AuthService
	tasks *TaskService
	token *security.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer := security.NewTokenIssuer(security.TokenConfig{Secret: []byte("test-secret"), TTL: 7 * 24 * time.Hour})

	auth, err := NewAuthService(store.Users(), hasher, issuer, logger.Discard())
	require.NoError(t, err)
	return &testEnv{
		store: store,
		auth:  auth,
		tasks: NewTaskService(store.Tasks(), logger.Discard()),
		token: issuer,
	}
}
