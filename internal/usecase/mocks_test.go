package usecase

import (
	"context"
	"sync"
	"time"

	"dojo-hub/internal/domain"
)

// mockSessionProvider implements domain.SessionProvider for testing.
type mockSessionProvider struct {
	session *domain.RawSession
	err     error
	calls   int
	cookie  string
}

func (m *mockSessionProvider) GetSession(_ context.Context, cookie string) (*domain.RawSession, error) {
	m.calls++
	m.cookie = cookie
	return m.session, m.err
}

// mockTokenIssuer implements domain.TokenIssuer for testing.
type mockTokenIssuer struct {
	token  string
	err    error
	minted []*domain.RawSession
	claims *domain.TokenClaims
}

func (m *mockTokenIssuer) Mint(session *domain.RawSession) (string, error) {
	m.minted = append(m.minted, session)
	return m.token, m.err
}

func (m *mockTokenIssuer) Verify(_ string) (*domain.TokenClaims, error) {
	return m.claims, m.err
}

// mockCSRF implements domain.CSRFTokenGenerator for testing.
type mockCSRF struct {
	token string
	err   error
}

func (m *mockCSRF) Generate(_ string) (string, error) {
	return m.token, m.err
}

func (m *mockCSRF) Valid(_ string, token string) bool {
	return m.err == nil && token != "" && token == m.token
}

// mockCache implements domain.ProfileCache without memoization.
type mockCache struct {
	invalidated []string
}

func (m *mockCache) GetOrLoad(ctx context.Context, _ string, load domain.LoadFunc) (*domain.UserProfile, error) {
	return load(ctx)
}

func (m *mockCache) Invalidate(userID string) {
	m.invalidated = append(m.invalidated, userID)
}

// mockBroadcaster implements domain.InvalidationBroadcaster for testing.
type mockBroadcaster struct {
	published []string
	err       error
}

func (m *mockBroadcaster) Publish(_ context.Context, userID string) error {
	m.published = append(m.published, userID)
	return m.err
}

// profileService is an in-memory profile service implementing both
// domain.ProfileFetcher and domain.ProfileWriter.
type profileService struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
	fetches  int
	tokens   []string
	fetchErr error
	writeErr error
}

func newProfileService(profiles ...domain.UserProfile) *profileService {
	s := &profileService{profiles: make(map[string]domain.UserProfile)}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

func (s *profileService) FetchProfile(_ context.Context, userID, token string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	s.tokens = append(s.tokens, token)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &p, nil
}

func (s *profileService) UpdateProfile(_ context.Context, userID, _ string, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}
	if update.ImageURL != nil {
		p.ImageURL = *update.ImageURL
	}
	if update.Settings != nil {
		p.Settings = *update.Settings
	}
	s.profiles[userID] = p
	return &p, nil
}

func (s *profileService) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// memStore is an in-memory domain.CredentialStore.
type memStore struct {
	creds  map[string]*domain.LocalCredential
	tokens map[string]*domain.CredentialToken
	err    error
}

func newMemStore() *memStore {
	return &memStore{
		creds:  make(map[string]*domain.LocalCredential),
		tokens: make(map[string]*domain.CredentialToken),
	}
}

func (s *memStore) EnsureCredential(_ context.Context, userID, email string) error {
	if s.err != nil {
		return s.err
	}
	if c, ok := s.creds[userID]; ok {
		c.Email = email
		return nil
	}
	s.creds[userID] = &domain.LocalCredential{UserID: userID, Email: email}
	return nil
}

func (s *memStore) GetCredentialByEmail(_ context.Context, email string) (*domain.LocalCredential, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.creds {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) GetCredentialByUserID(_ context.Context, userID string) (*domain.LocalCredential, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.creds[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	c, ok := s.creds[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	c.PasswordHash = hash
	return nil
}

func (s *memStore) MarkEmailVerified(_ context.Context, userID string, at time.Time) error {
	c, ok := s.creds[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	c.EmailVerifiedAt = &at
	return nil
}

func (s *memStore) CreateToken(_ context.Context, token *domain.CredentialToken) error {
	if s.err != nil {
		return s.err
	}
	s.tokens[token.TokenHash] = token
	return nil
}

func (s *memStore) ConsumeToken(_ context.Context, kind domain.CredentialTokenKind, tokenHash string) (*domain.CredentialToken, error) {
	t, ok := s.tokens[tokenHash]
	if !ok || t.Kind != kind {
		return nil, domain.ErrTokenNotFound
	}
	delete(s.tokens, tokenHash)
	return t, nil
}

func (s *memStore) DeleteTokensForUser(_ context.Context, userID string, kind domain.CredentialTokenKind) error {
	if s.err != nil {
		return s.err
	}
	for h, t := range s.tokens {
		if t.UserID == userID && t.Kind == kind {
			delete(s.tokens, h)
		}
	}
	return nil
}

func (s *memStore) DeleteTokensCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for h, t := range s.tokens {
		if t.CreatedAt.Before(before) {
			delete(s.tokens, h)
			n++
		}
	}
	return n, nil
}

func (s *memStore) tokensFor(userID string, kind domain.CredentialTokenKind) []*domain.CredentialToken {
	var out []*domain.CredentialToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// mockMailer records sent tokens.
type mockMailer struct {
	verifications map[string]string
	resets        map[string]string
	err           error
}

func newMockMailer() *mockMailer {
	return &mockMailer{verifications: map[string]string{}, resets: map[string]string{}}
}

func (m *mockMailer) SendVerification(_ context.Context, to, token string) error {
	if m.err != nil {
		return m.err
	}
	m.verifications[to] = token
	return nil
}

func (m *mockMailer) SendPasswordReset(_ context.Context, to, token string) error {
	if m.err != nil {
		return m.err
	}
	m.resets[to] = token
	return nil
}
