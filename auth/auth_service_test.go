package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillsync/skillsync-server/audit/sinkfake"
	"github.com/skillsync/skillsync-server/auth"
	"github.com/skillsync/skillsync-server/internal/apperrors"
	"github.com/skillsync/skillsync-server/internal/kv"
	"github.com/skillsync/skillsync-server/mail/mailfake"
	"github.com/skillsync/skillsync-server/sessions"
	"github.com/skillsync/skillsync-server/token"
	"github.com/skillsync/skillsync-server/users"
	fakeuserrepo "github.com/skillsync/skillsync-server/users/repofake"
)

const (
	testUserID       = "user-1"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
	testIssuer       = "com.skillsync.test"
)

var testSecurityContext = auth.SecurityContext{
	IPAddress: "203.0.113.7",
	UserAgent: "test-agent/1.0",
}

// testAuthConfig satisfies config.AuthConfig without touching the
// process environment.
type testAuthConfig struct{}

func (testAuthConfig) GetAccessTokenSecret() string         { return "access-secret-1234" }
func (testAuthConfig) GetRefreshTokenSecret() string        { return "refresh-secret-5678" }
func (testAuthConfig) GetIssuer() string                    { return testIssuer }
func (testAuthConfig) GetAccessTokenExpiry() time.Duration  { return 15 * time.Minute }
func (testAuthConfig) GetRefreshTokenExpiry() time.Duration { return 7 * 24 * time.Hour }
func (testAuthConfig) GetOTPExpiry() time.Duration          { return 10 * time.Minute }

// testFixture holds all test dependencies
type testFixture struct {
	userRepo     *fakeuserrepo.FakeUserRepo
	store        *kv.MemoryStore
	sessionStore *sessions.Store
	codec        *token.Codec
	audit        *sinkfake.Recorder
	mailer       *mailfake.FakeMailer
	service      *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	store := kv.NewMemoryStore()
	ss := sessions.NewStore(store)
	recorder := sinkfake.NewRecorder()
	mailer := mailfake.NewFakeMailer()

	codec, err := token.NewCodec(testAuthConfig{})
	require.NoError(t, err)

	service, err := auth.NewService(auth.Deps{
		Users:    ur,
		Sessions: ss,
		Codes:    store,
		Codec:    codec,
		Audit:    recorder,
		Mailer:   mailer,
	}, testAuthConfig{})
	require.NoError(t, err)

	return &testFixture{
		userRepo:     ur,
		store:        store,
		sessionStore: ss,
		codec:        codec,
		audit:        recorder,
		mailer:       mailer,
		service:      service,
	}
}

// createTestUser creates and stores an active mentee account
func (f *testFixture) createTestUser(t *testing.T) *users.User {
	t.Helper()

	passwordHash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	user := &users.User{
		ID:           testUserID,
		Email:        testUserEmail,
		PasswordHash: passwordHash,
		FirstName:    "John",
		LastName:     "Doe",
		Role:         users.RoleMentee,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

// login runs a credential login and returns the issued token pair
func (f *testFixture) login(t *testing.T) *auth.AuthResult {
	t.Helper()

	result, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    testUserEmail,
		Password: testUserPassword,
	}, testSecurityContext)
	require.NoError(t, err)
	return result
}

func TestRegister_CreatesActiveUserWithTokens(t *testing.T) {
	f := setupTestFixture(t)

	result, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:     "new.user@example.com",
		Password:  testUserPassword,
		FirstName: "New",
		LastName:  "User",
	}, testSecurityContext)

	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "new.user@example.com", result.User.Email)
	require.Equal(t, users.RoleMentee, result.User.Role)
	require.True(t, result.User.IsActive)
	require.Empty(t, result.User.PasswordHash)

	// The refresh token must verify and reference a live session
	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	current, err := f.sessionStore.CurrentTokenID(context.Background(), payload.SessionID)
	require.NoError(t, err)
	require.Equal(t, payload.TokenID, current)

	require.Len(t, f.audit.Registrations, 1)
	require.Len(t, f.mailer.SentTo("welcome", "new.user@example.com"), 1)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:     testUserEmail,
		Password:  testUserPassword,
		FirstName: "John",
		LastName:  "Doe",
	}, testSecurityContext)

	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	require.True(t, apperrors.IsConflict(err))
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:     "weak@example.com",
		Password:  "short",
		FirstName: "Weak",
		LastName:  "Password",
	}, testSecurityContext)

	require.Error(t, err)
	require.True(t, apperrors.IsBadRequest(err))
}

func TestRegister_MailFailureDoesNotFailRegistration(t *testing.T) {
	f := setupTestFixture(t)
	f.mailer.FailAll = context.DeadlineExceeded

	result, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:     "new.user@example.com",
		Password:  testUserPassword,
		FirstName: "New",
		LastName:  "User",
	}, testSecurityContext)

	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
}

func TestLogin_Succeeds(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result := f.login(t)

	require.Equal(t, testUserEmail, result.User.Email)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Len(t, f.audit.Logins, 1)
	require.Equal(t, testSecurityContext.IPAddress, f.audit.Logins[0].IPAddress)
	require.Len(t, f.mailer.SentTo("login", testUserEmail), 1)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, unknownErr := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@example.com",
		Password: testUserPassword,
	}, testSecurityContext)
	_, wrongErr := f.service.Login(context.Background(), auth.LoginInput{
		Email:    testUserEmail,
		Password: "WrongPassword1",
	}, testSecurityContext)

	require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, apperrors.ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLogin_InactiveAccountRejected(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createTestUser(t)
	require.NoError(t, f.userRepo.SetActive(context.Background(), user.ID, false))

	_, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    testUserEmail,
		Password: testUserPassword,
	}, testSecurityContext)

	require.ErrorIs(t, err, apperrors.ErrAccountInactive)
}

func TestLogout_RevokesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	msg, err := f.service.Logout(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	require.Equal(t, auth.MsgLogoutSuccessful, msg.Message)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)
	revoked, err := f.sessionStore.IsRevoked(context.Background(), payload.SessionID)
	require.NoError(t, err)
	require.True(t, revoked)

	require.Len(t, f.audit.Logouts, 1)
	require.Equal(t, payload.SessionID, f.audit.Logouts[0].SessionID)
	require.Equal(t, testUserEmail, f.audit.Logouts[0].Email)
}

func TestLogout_MissingTokenRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Logout(context.Background(), "", testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = f.service.Logout(context.Background(), "   ", testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestLogout_MalformedTokenRejected(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Logout(context.Background(), "not-a-jwt", testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestLogout_AccessTokenRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	// An access token is signed with the other secret, so it must not be
	// accepted as a refresh token.
	_, err := f.service.Logout(context.Background(), result.AccessToken, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestLogout_IsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	_, err := f.service.Logout(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)

	msg, err := f.service.Logout(context.Background(), result.RefreshToken, testSecurityContext)
	require.NoError(t, err)
	require.Equal(t, auth.MsgLogoutSuccessful, msg.Message)
}

func TestListSessionsForUser_NewestFirstWithPagination(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc, err := auth.NewService(authDeps(f), testAuthConfig{}, auth.WithNowTime(func() time.Time { return at }))
		require.NoError(t, err)
		_, err = svc.Login(context.Background(), auth.LoginInput{
			Email:    testUserEmail,
			Password: testUserPassword,
		}, testSecurityContext)
		require.NoError(t, err)
	}

	page, err := f.service.ListSessionsForUser(context.Background(), testUserID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.PageCount)
	require.Len(t, page.Sessions, 2)
	require.True(t, page.Sessions[0].CreatedAt.After(page.Sessions[1].CreatedAt))

	page2, err := f.service.ListSessionsForUser(context.Background(), testUserID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2.Sessions, 1)
}

func TestRevokeSessionByID_OwnerOnly(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)
	result := f.login(t)

	payload, err := f.codec.VerifyRefresh(result.RefreshToken)
	require.NoError(t, err)

	// A different user cannot see or revoke the session
	err = f.service.RevokeSessionByID(context.Background(), "someone-else", payload.SessionID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	require.NoError(t, f.service.RevokeSessionByID(context.Background(), testUserID, payload.SessionID))

	revoked, err := f.sessionStore.IsRevoked(context.Background(), payload.SessionID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevokeSessionByID_UnknownSession(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.RevokeSessionByID(context.Background(), testUserID, "no-such-session")
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestRevokeAllSessionsExcept_SparesCurrent(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	first := f.login(t)
	f.login(t)
	f.login(t)

	keep, err := f.codec.VerifyRefresh(first.RefreshToken)
	require.NoError(t, err)

	count, err := f.service.RevokeAllSessionsExcept(context.Background(), testUserID, keep.SessionID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	revoked, err := f.sessionStore.IsRevoked(context.Background(), keep.SessionID)
	require.NoError(t, err)
	require.False(t, revoked)

	// The spared session still refreshes
	_, err = f.service.Refresh(context.Background(), first.RefreshToken, testSecurityContext)
	require.NoError(t, err)
}

func TestForgotPassword_SameMessageForUnknownAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	known, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: testUserEmail})
	require.NoError(t, err)
	unknown, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: "nobody@example.com"})
	require.NoError(t, err)

	require.Equal(t, auth.MsgOTPSent, known.Message)
	require.Equal(t, known.Message, unknown.Message)

	// Only the existing account actually receives a code
	require.Len(t, f.mailer.SentTo("otp", testUserEmail), 1)
	require.Empty(t, f.mailer.SentTo("otp", "nobody@example.com"))
}

func TestVerifyOTP_MatchesStoredCode(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: testUserEmail})
	require.NoError(t, err)
	sent := f.mailer.SentTo("otp", testUserEmail)
	require.Len(t, sent, 1)
	require.Len(t, sent[0].OTP, 6)

	valid, err := f.service.VerifyOTP(context.Background(), auth.VerifyOTPInput{Email: testUserEmail, OTP: sent[0].OTP})
	require.NoError(t, err)
	require.True(t, valid.Valid)
	require.Equal(t, auth.MsgOTPVerified, valid.Message)

	invalid, err := f.service.VerifyOTP(context.Background(), auth.VerifyOTPInput{Email: testUserEmail, OTP: "000000"})
	require.NoError(t, err)
	require.False(t, invalid.Valid)
	require.Equal(t, auth.MsgOTPInvalid, invalid.Message)
}

func TestVerifyOTP_NoStoredCode(t *testing.T) {
	f := setupTestFixture(t)

	result, err := f.service.VerifyOTP(context.Background(), auth.VerifyOTPInput{Email: testUserEmail, OTP: "123456"})
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Equal(t, auth.MsgOTPInvalid, result.Message)
}

func TestResetPassword_ReplacesPasswordAndConsumesOTP(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: testUserEmail})
	require.NoError(t, err)
	otp := f.mailer.SentTo("otp", testUserEmail)[0].OTP

	msg, err := f.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       testUserEmail,
		OTP:         otp,
		NewPassword: "NewPassword456",
	})
	require.NoError(t, err)
	require.Equal(t, auth.MsgPasswordReset, msg.Message)

	// Old password no longer works, new one does
	_, err = f.service.Login(context.Background(), auth.LoginInput{Email: testUserEmail, Password: testUserPassword}, testSecurityContext)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.service.Login(context.Background(), auth.LoginInput{Email: testUserEmail, Password: "NewPassword456"}, testSecurityContext)
	require.NoError(t, err)

	// The OTP is single use
	_, err = f.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       testUserEmail,
		OTP:         otp,
		NewPassword: "AnotherPassword789",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidOTP)
}

func TestResetPassword_WrongOTPRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: testUserEmail})
	require.NoError(t, err)

	_, err = f.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       testUserEmail,
		OTP:         "000000",
		NewPassword: "NewPassword456",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidOTP)
}

func TestResetPassword_WeakNewPasswordRejected(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, err := f.service.ForgotPassword(context.Background(), auth.ForgotPasswordInput{Email: testUserEmail})
	require.NoError(t, err)
	otp := f.mailer.SentTo("otp", testUserEmail)[0].OTP

	_, err = f.service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       testUserEmail,
		OTP:         otp,
		NewPassword: "weak",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsBadRequest(err))
}

// authDeps rebuilds the Deps struct from a fixture so tests can construct
// services with an overridden clock against the same backing stores.
func authDeps(f *testFixture) auth.Deps {
	return auth.Deps{
		Users:    f.userRepo,
		Sessions: f.sessionStore,
		Codes:    f.store,
		Codec:    f.codec,
		Audit:    f.audit,
		Mailer:   f.mailer,
	}
}
