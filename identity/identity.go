// Package identity is the account boundary: email/password sign-up and
// sign-in, token revocation on sign-out, account deletion, and an auth-state
// stream consumers can subscribe to with a guaranteed-unregistration handle.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dishdash-app/dishdash/store"
)

// CollectionAccounts holds credential records, separate from the profile
// records the rest of the app reads.
const CollectionAccounts = "Accounts"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
)

type Account struct {
	ID    string
	Email string
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventDeleted   EventType = "deleted"
)

// Event is one auth-state change, delivered to every subscriber.
type Event struct {
	Type   EventType
	UserID string
}

type authSubscriber struct {
	fn func(Event)
}

type Service struct {
	st      store.Store
	tokens  *TokenManager
	revoked RevocationList

	mu   sync.Mutex
	subs map[*authSubscriber]struct{}
}

func NewService(st store.Store, tokens *TokenManager, revoked RevocationList) *Service {
	return &Service{
		st:      st,
		tokens:  tokens,
		revoked: revoked,
		subs:    make(map[*authSubscriber]struct{}),
	}
}

// SignUp creates a credential record and returns the new account. The caller
// owns writing the matching profile record.
func (s *Service) SignUp(ctx context.Context, email, password string) (Account, error) {
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return Account{}, err
	}
	if existing != nil {
		return Account{}, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	id := uuid.NewString()
	err = s.st.Set(ctx, CollectionAccounts, id, map[string]any{
		"email":        email,
		"passwordHash": string(hashed),
	})
	if err != nil {
		return Account{}, err
	}

	slog.InfoContext(ctx, "account created", slog.String("user_id", id))
	return Account{ID: id, Email: email}, nil
}

// SignIn validates credentials and returns a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, Account, error) {
	rec, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", Account{}, err
	}
	if rec == nil {
		return "", Account{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.String("passwordHash")), []byte(password)) != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	account := Account{ID: rec.ID, Email: email}
	token, err := s.tokens.Generate(account.ID, account.Email)
	if err != nil {
		return "", Account{}, err
	}

	s.emit(Event{Type: EventSignedIn, UserID: account.ID})
	return token, account, nil
}

// SignOut revokes the presented token for the rest of its lifetime.
func (s *Service) SignOut(ctx context.Context, tokenStr string) error {
	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	s.emit(Event{Type: EventSignedOut, UserID: claims.UserID})
	return nil
}

// Verify checks token signature, expiry and revocation, returning the claims
// of the authenticated user.
func (s *Service) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DeleteAccount removes the credential record. Profile and order cleanup is
// the account workflow's job and happens before this call.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.st.Delete(ctx, CollectionAccounts, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "account deleted", slog.String("user_id", userID))
	s.emit(Event{Type: EventDeleted, UserID: userID})
	return nil
}

// Subscribe registers an auth-state listener. The returned handle is
// idempotent and must be called when the listener goes away.
func (s *Service) Subscribe(fn func(Event)) store.UnsubscribeFunc {
	sub := &authSubscriber{fn: fn}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
		})
	}
}

func (s *Service) emit(ev Event) {
	s.mu.Lock()
	targets := make([]*authSubscriber, 0, len(s.subs))
	for sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.fn(ev)
	}
}

func (s *Service) findByEmail(ctx context.Context, email string) (*store.Record, error) {
	records, err := s.st.List(ctx, CollectionAccounts)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].String("email") == email {
			return &records[i], nil
		}
	}
	return nil, nil
}
