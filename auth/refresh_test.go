package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillsync/skillsync-server/internal/apperrors"
)

func TestRefresh_RotatesToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	pair, err := f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, result.RefreshToken, pair.RefreshToken)

	// Session and family persist across the rotation, only the token id moves
	oldPayload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	newPayload, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, oldPayload.SessionID, newPayload.SessionID)
	require.Equal(t, oldPayload.Family, newPayload.Family)
	require.NotEqual(t, oldPayload.TokenID, newPayload.TokenID)

	current, err := f.sessionStore.CurrentTokenID(context.Background(), newPayload.SessionID)
	require.NoError(t, err)
	require.Equal(t, newPayload.TokenID, current)
}

func TestRefresh_ChainOfRotations(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	refreshToken := result.RefreshToken
	for i := 0; i < 5; i++ {
		pair, err := f.service.Refresh(context.Background(), refreshToken, testSecurityContext)
		require.NoError(t, err)
		refreshToken = pair.RefreshToken
	}

	successes := 0
	for _, event := range f.audit.Refreshes {
		if event.Success {
			successes++
		}
	}
	require.Equal(t, 5, successes)
}

func TestRefresh_MissingOrMalformedTokenRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Refresh(context.Background(), "", testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = f.service.Refresh(context.Background(), "garbage.token.here", testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	_, err := f.service.Refresh(context.Background(), result.AccessToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

// A stale refresh token, one that was already rotated away, is treated as
// evidence of leakage: the whole session dies, including the freshly
// issued token.
func TestRefresh_StaleTokenPoisonsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	pair, err := f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)

	// Replay the original token
	_, err = f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	revoked, err := f.sessionStore.IsRevoked(context.Background(), payload.SessionID)
	require.NoError(t, err)
	require.True(t, revoked)

	// The descendant token issued by the legitimate rotation dies too
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefresh_ReuseIsAudited(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	_, err := f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	_, err = f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)

	require.Len(t, f.audit.ReuseAttempts, 1)
	require.Equal(t, payload.SessionID, f.audit.ReuseAttempts[0].SessionID)
	require.Equal(t, payload.TokenID, f.audit.ReuseAttempts[0].TokenID)
	require.Equal(t, testUserID, f.audit.ReuseAttempts[0].UserID)

	failed := f.audit.FailedRefreshes()
	require.Len(t, failed, 1)
	require.Equal(t, "Refresh token reuse detected", failed[0].FailureReason)
}

func TestRefresh_AfterLogoutRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	_, err := f.service.Logout(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	failed := f.audit.FailedRefreshes()
	require.Len(t, failed, 1)
	require.Equal(t, "Session has been revoked", failed[0].FailureReason)

	// A dead session never produces a reuse attempt record
	require.Empty(t, f.audit.ReuseAttempts)
}

// Each login is its own session: poisoning one must not disturb the others.
func TestRefresh_SessionsAreIndependent(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	first := f.login(t)
	second := f.login(t)

	// Kill the first session through replay
	_, err := f.service.Refresh(context.Background(), first.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	_, err = f.service.Refresh(context.Background(), first.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	// The second session is untouched
	pair, err := f.service.Refresh(context.Background(), second.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
}

// Two clients racing with the same refresh token: the compare-and-swap
// guarantees at most one winner, and the loss counts as reuse, so the
// session ends up revoked either way.
func TestRefresh_ConcurrentUseHasOneWinner(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		}
	}
	require.LessOrEqual(t, wins, 1)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	revoked, err := f.sessionStore.IsRevoked(context.Background(), payload.SessionID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRefresh_RevokedByIDRejectsDescendants(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, f.service.RevokeSessionByID(context.Background(), testUserID, payload.SessionID))

	_, err = f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefresh_ReturnsSanitizedPairOnly(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	pair, err := f.service.Refresh(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)

	// The new access token verifies against the access secret
	access, err := f.codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, access.UserID)
	require.Equal(t, testUserEmail, access.Email)
}
