// Package service holds the business flows behind the GraphQL and REST
// surfaces: authentication (signup, login, per-request identity, me) and the
// skill catalogue. Every error it returns is a *Error with a fixed message
// per Kind; store and driver failures are logged here and surfaced only as
// KindOperationFailed.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/skillgraph/internal/config"
	"github.com/iliyamo/skillgraph/internal/logging"
	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/queue"
	"github.com/iliyamo/skillgraph/internal/repository"
	"github.com/iliyamo/skillgraph/internal/utils"
)

// UserStore is the credential store contract.  Implementations return
// repository.ErrUserNotFound for missing records and
// repository.ErrEmailExists when the unique email index rejects an insert.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Delete(ctx context.Context, id string) (*model.User, error)
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(id, email string) (utils.AccessToken, error)
	Verify(raw string) (utils.Claims, error)
}

// EventPublisher receives domain events.  Publishing is best effort.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error
}

// SignupInput carries the fields of the signup operation.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber *string
	Metadata    any // must be a JSON object when set
}

// AuthPayload is returned by a successful signup or login.
type AuthPayload struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

const bearerPrefix = "Bearer "

// MaxMetadataBytes bounds the encoded size of a user's metadata.
const MaxMetadataBytes = 16 << 10

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// AuthService orchestrates signup and login against the credential store and
// the token service, and resolves the caller's identity for each request.
// It keeps no per-request state and is safe for concurrent use.
type AuthService struct {
	users     UserStore
	tokens    Tokens
	cost      int
	strict    bool
	dummyHash string
	events    EventPublisher
	log       logging.Logger
}

// NewAuthService builds the flow from explicit configuration.  It hashes a
// throwaway password once so that logins for unknown emails spend as long
// in bcrypt as logins with a wrong password.
func NewAuthService(cfg config.Config, users UserStore, tokens Tokens, log logging.Logger) (*AuthService, error) {
	dummy, err := utils.HashPassword("not-a-real-password", cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		cost:      cfg.BcryptCost,
		strict:    cfg.StrictBearer,
		dummyHash: dummy,
		log:       log.With("module", "auth"),
	}, nil
}

// WithEvents attaches a publisher for user.registered events.
func (s *AuthService) WithEvents(p EventPublisher) *AuthService {
	s.events = p
	return s
}

// Signup registers a user and returns a token for it.  The record is
// persisted before a token is issued; if persistence fails no token exists.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthPayload, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, invalidInput("name is required")
	case !ValidEmail(email):
		return nil, invalidInput("email is not a valid address")
	case in.Password == "":
		return nil, invalidInput("password is required")
	case len(in.Password) > utils.MaxPasswordBytes:
		return nil, invalidInput("password is too long")
	}
	var phone *string
	if in.PhoneNumber != nil && strings.TrimSpace(*in.PhoneNumber) != "" {
		p := strings.TrimSpace(*in.PhoneNumber)
		if !ValidPhone(p) {
			return nil, invalidInput("phone number must be in E.164 format")
		}
		phone = &p
	}
	meta, err := userMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, newError(KindDuplicateUser, nil)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, s.fail(ctx, "signup: lookup user", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, s.fail(ctx, "signup: hash password", err)
	}

	u := &model.User{Name: name, Email: email, PasswordHash: hash, PhoneNumber: phone, Metadata: meta}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// lost a race with a concurrent signup for the same address
			s.log.Info(ctx, "signup rejected by unique email index")
			return nil, newError(KindDuplicateUser, err)
		}
		return nil, s.fail(ctx, "signup: create user", err)
	}

	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, s.fail(ctx, "signup: issue token", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", u.ID)
	s.publishRegistered(ctx, u)
	return &AuthPayload{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, nil
}

// Login verifies credentials and returns a fresh token.  An unknown email
// and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(KindInvalidCredentials, nil)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.VerifyPassword(s.dummyHash, password)
			return nil, newError(KindInvalidCredentials, nil)
		}
		return nil, s.fail(ctx, "login: lookup user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, newError(KindInvalidCredentials, nil)
	}

	tok, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, s.fail(ctx, "login: issue token", err)
	}
	return &AuthPayload{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, nil
}

// Identify resolves the Authorization header of a request into an
// identity.  A missing, malformed, forged or expired token is not an error:
// the caller is simply anonymous.
func (s *AuthService) Identify(ctx context.Context, header string) Identity {
	raw := BearerToken(header, s.strict)
	if raw == "" {
		return Anonymous
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "kind", string(KindInvalidToken), "reason", err.Error())
		return Anonymous
	}
	return Identity{UserID: claims.ID, Email: claims.Email}
}

// Me returns the current record of the authenticated caller.  It reads the
// store rather than trusting the token payload.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	id := IdentityFrom(ctx)
	if !id.Authenticated() {
		return nil, newError(KindNotAuthenticated, nil)
	}
	u, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newError(KindUserNotFound, err)
		}
		return nil, s.fail(ctx, "me: lookup user", err)
	}
	return u, nil
}

// FindUserByEmail returns the user with the given email, or nil if none.
func (s *AuthService) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, s.fail(ctx, "find user by email", err)
	}
	return u, nil
}

// ListUsers returns every registered user.
func (s *AuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list users", err)
	}
	return users, nil
}

// GetUser returns a user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidInput("id is required")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newError(KindUserNotFound, err)
		}
		return nil, s.fail(ctx, "get user", err)
	}
	return u, nil
}

// DeleteUser removes the caller's own account and returns the deleted
// record.  Tokens already issued for it stay valid until expiry, but Me
// reports UserNotFound for them.
func (s *AuthService) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	caller := IdentityFrom(ctx)
	if !caller.Authenticated() {
		return nil, newError(KindNotAuthenticated, nil)
	}
	if id != caller.UserID {
		return nil, newError(KindForbidden, nil)
	}
	u, err := s.users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newError(KindUserNotFound, err)
		}
		return nil, s.fail(ctx, "delete user", err)
	}
	s.log.Info(ctx, "user deleted", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, u *model.User) {
	if s.events == nil {
		return
	}
	ev := queue.UserRegisteredEvent{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		RegisteredAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishUserRegistered(ctx, ev); err != nil {
		s.log.Warn(ctx, "publish user.registered failed", "user_id", u.ID, "error", err.Error())
	}
}

// fail logs the underlying cause and returns the generic error shown to callers.
func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, "auth operation failed", "op", op, "error", err.Error())
	return newError(KindOperationFailed, err)
}

// userMetadata accepts a JSON object, or nothing.
func userMetadata(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalidInput("metadata must be a JSON object")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, invalidInput("metadata is not valid JSON")
	}
	if len(b) > MaxMetadataBytes {
		return nil, invalidInput("metadata is too large")
	}
	return m, nil
}

// NormalizeEmail trims and lower-cases an address so that lookups and the
// unique index agree on what "the same email" means.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address with a dotted domain.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// ValidPhone reports whether p looks like an E.164 number.
func ValidPhone(p string) bool {
	return phonePattern.MatchString(p)
}

// BearerToken extracts the token from an Authorization header.  The scheme
// is matched case-insensitively.  In lenient mode a header without the
// scheme is taken as the raw token; in strict mode it yields "".
func BearerToken(header string, strict bool) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	if strict {
		return ""
	}
	return header
}
