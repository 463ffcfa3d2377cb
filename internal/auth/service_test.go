package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

// fakeStore is an in-memory UserStore that mirrors the production
// repository's hash-on-write behavior.
type fakeStore struct {
	hasher *PasswordHasher
	users  map[int64]*user.User
	nextID int64
}

func newFakeStore(hasher *PasswordHasher) *fakeStore {
	return &fakeStore{
		hasher: hasher,
		users:  make(map[int64]*user.User),
		nextID: 1,
	}
}

func (s *fakeStore) ensureHashed(u *user.User) error {
	if u.Password == "" || s.hasher.IsHash(u.Password) {
		return nil
	}
	hashed, err := s.hasher.Hash(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

func (s *fakeStore) Create(ctx context.Context, u *user.User) (*user.User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, user.ErrDuplicateEmail
		}
	}
	if err := s.ensureHashed(u); err != nil {
		return nil, err
	}
	stored := *u
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	s.nextID++
	s.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (s *fakeStore) Save(ctx context.Context, u *user.User) error {
	if _, ok := s.users[u.ID]; !ok {
		return user.ErrNotFound
	}
	if err := s.ensureHashed(u); err != nil {
		return err
	}
	stored := *u
	stored.UpdatedAt = time.Now()
	s.users[u.ID] = &stored
	return nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *fakeStore) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*user.User, error) {
	for _, u := range s.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) GetByProviderID(ctx context.Context, provider, providerID string) (*user.User, error) {
	for _, u := range s.users {
		var linked *string
		switch provider {
		case "facebook":
			linked = u.Facebook
		case "google":
			linked = u.Google
		case "twitter":
			linked = u.Twitter
		default:
			return nil, user.ErrUnknownProvider
		}
		if linked != nil && *linked == providerID {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// fakeEmailService records sent mail and can be told to fail
type fakeEmailService struct {
	resetMails   []string
	changedMails []string
	failNext     bool
}

func (f *fakeEmailService) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	if f.failNext {
		f.failNext = false
		return errors.New("smtp unavailable")
	}
	f.resetMails = append(f.resetMails, to)
	return nil
}

func (f *fakeEmailService) SendPasswordChangedEmail(ctx context.Context, to string) error {
	if f.failNext {
		f.failNext = false
		return errors.New("smtp unavailable")
	}
	f.changedMails = append(f.changedMails, to)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeEmailService) {
	t.Helper()

	hasher := NewPasswordHasher()
	store := newFakeStore(hasher)
	mailer := &fakeEmailService{}

	tokenService, err := NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	svc := NewService(
		store,
		hasher,
		NewResetTokenIssuer(),
		tokenService,
		mailer,
		logging.NewLogger(true),
		15*24*time.Hour,
	)
	return svc, store, mailer
}

func TestSignupThenLogin(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, token, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.NotEmpty(t, created.Picture, "new accounts get a gravatar picture")

	// Plaintext never reaches the store
	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.Password)
	assert.True(t, store.hasher.IsHash(stored.Password))

	loginToken, err := svc.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, loginToken)
}

func TestSignupNormalizesEmail(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "  Alice@Example.COM ", "hunter2", "hunter2")
	require.NoError(t, err)

	_, err = store.GetByEmail(ctx, "alice@example.com")
	assert.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		wantErr  error
	}{
		{"missing email", "", "hunter2", "hunter2", ErrEmailRequired},
		{"bad email", "not-an-email", "hunter2", "hunter2", ErrInvalidEmailFormat},
		{"missing password", "a@b.com", "", "", ErrPasswordRequired},
		{"short password", "a@b.com", "abc", "abc", ErrPasswordTooShort},
		{"mismatch", "a@b.com", "hunter2", "hunter3", ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(ctx, tt.email, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "alice@example.com", "other-pass", "other-pass")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	// Wrong password and unknown email must be indistinguishable
	_, errWrongPass := svc.Login(ctx, "alice@example.com", "wrong")
	_, errNoAccount := svc.Login(ctx, "nobody@example.com", "whatever")

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoAccount, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errNoAccount.Error())
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, mailer := newTestService(t)

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, mailer.resetMails)
}

func TestForgotPasswordStoresTokenAndSendsMail(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.Len(t, *stored.PasswordResetToken, 32, "16 random bytes hex encoded")
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.PasswordResetExpires, time.Minute)
	assert.Equal(t, []string{"alice@example.com"}, mailer.resetMails)
}

func TestForgotPasswordMailFailureKeepsToken(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	mailer.failNext = true
	err = svc.ForgotPassword(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrMailDelivery)

	// The token survives the delivery failure; a retry link can still work
	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.PasswordResetToken)
}

func TestResetPasswordRoundTrip(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "old-pass", "old-pass")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	token := *stored.PasswordResetToken

	require.NoError(t, svc.ValidateResetToken(ctx, token))

	bearer, err := svc.ResetPassword(ctx, token, "new-pass", "new-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, []string{"alice@example.com"}, mailer.changedMails)

	// Old password no longer works, new one does
	_, err = svc.Login(ctx, "alice@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "alice@example.com", "new-pass")
	assert.NoError(t, err)

	// The token is single use
	_, err = svc.ResetPassword(ctx, token, "another", "another")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	token := "deadbeefdeadbeefdeadbeefdeadbeef"
	expired := time.Now().Add(-time.Minute)
	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	stored.PasswordResetToken = &token
	stored.PasswordResetExpires = &expired
	require.NoError(t, store.Save(ctx, stored))

	assert.ErrorIs(t, svc.ValidateResetToken(ctx, token), ErrResetTokenInvalid)
	_, err = svc.ResetPassword(ctx, token, "new-pass", "new-pass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestUpdatePassword(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "old-pass", "old-pass")
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(ctx, created.ID, "new-pass", "new-pass"))
	assert.Equal(t, []string{"alice@example.com"}, mailer.changedMails)

	_, err = svc.Login(ctx, "alice@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, created.ID))

	_, err = store.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestSignInWithProviderCreatesAccount(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	identity := ProviderIdentity{
		Provider:    "facebook",
		ID:          "fb-123",
		AccessToken: "fb-token",
		Email:       "Alice@Example.com",
		Name:        "Alice",
		Gender:      "female",
		Picture:     "https://graph.facebook.com/fb-123/picture?type=large",
		Location:    "Berlin",
	}

	created, bearer, err := svc.SignInWithProvider(ctx, nil, identity)
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "Alice", created.Name)
	require.NotNil(t, created.Facebook)
	assert.Equal(t, "fb-123", *created.Facebook)

	// The account is passwordless
	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
}

func TestSignInWithProviderReturningUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	identity := ProviderIdentity{Provider: "facebook", ID: "fb-123", AccessToken: "t", Email: "alice@example.com", Name: "Alice"}

	first, _, err := svc.SignInWithProvider(ctx, nil, identity)
	require.NoError(t, err)

	second, bearer, err := svc.SignInWithProvider(ctx, nil, identity)
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, first.ID, second.ID, "the same account signs in again")
}

func TestSignInWithProviderEmailAlreadyRegistered(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	identity := ProviderIdentity{Provider: "facebook", ID: "fb-123", AccessToken: "t", Email: "alice@example.com"}
	_, _, err = svc.SignInWithProvider(ctx, nil, identity)
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestSignInWithProviderLinksCurrentAccount(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	identity := ProviderIdentity{Provider: "facebook", ID: "fb-123", AccessToken: "t", Name: "Alice From FB", Picture: "pic-url"}
	linked, bearer, err := svc.SignInWithProvider(ctx, &created.ID, identity)
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.Equal(t, created.ID, linked.ID)

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Facebook)
	assert.Equal(t, "fb-123", *stored.Facebook)
	assert.Equal(t, "Alice From FB", stored.Name, "missing profile fields filled from provider")
}

func TestSignInWithProviderLinkConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	identity := ProviderIdentity{Provider: "facebook", ID: "fb-123", AccessToken: "t", Email: "bob@example.com"}
	_, _, err := svc.SignInWithProvider(ctx, nil, identity)
	require.NoError(t, err)

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	// fb-123 already belongs to bob's account
	_, _, err = svc.SignInWithProvider(ctx, &created.ID, identity)
	assert.ErrorIs(t, err, ErrProviderAlreadyLinked)
}

func TestSignInWithUnknownProvider(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.SignInWithProvider(context.Background(), nil, ProviderIdentity{Provider: "myspace", ID: "x"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestUnlinkProvider(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	identity := ProviderIdentity{Provider: "facebook", ID: "fb-123", AccessToken: "t"}
	_, _, err = svc.SignInWithProvider(ctx, &created.ID, identity)
	require.NoError(t, err)

	require.NoError(t, svc.UnlinkProvider(ctx, created.ID, "facebook"))

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Facebook)
	assert.Nil(t, stored.FacebookToken)
}

func TestUnlinkUnknownProvider(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "hunter2", "hunter2")
	require.NoError(t, err)

	err = svc.UnlinkProvider(ctx, created.ID, "myspace")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
