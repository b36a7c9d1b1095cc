package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"aureum/internal/auth"
	"aureum/internal/core"
	"aureum/internal/storage"
	"aureum/internal/validate"
)

// Token is the bearer credential handed to clients.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Registration struct {
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	Birthdate string        `json:"birthdate"`
	Type      core.UserType `json:"type"`
}

// ProfileUpdate carries optional profile changes; nil leaves a field alone.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type PreferencesUpdate struct {
	Theme                *string  `json:"theme"`
	Language             *string  `json:"language"`
	Currency             *string  `json:"currency"`
	NotificationsEnabled *bool    `json:"notifications_enabled"`
	EmailNotifications   *bool    `json:"email_notifications"`
	DashboardWidgets     []string `json:"dashboard_widgets"`
}

// AccountService owns registration, login and everything a user can change
// about themselves.
type AccountService struct {
	users  storage.UserStore
	tokens *auth.TokenIssuer
	now    func() time.Time
}

func NewAccountService(users storage.UserStore, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{users: users, tokens: tokens, now: time.Now}
}

func (s *AccountService) issue(email string) (Token, error) {
	tok, err := s.tokens.Issue(email, 0)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{AccessToken: tok, TokenType: "bearer"}, nil
}

// Register creates a user and returns a token for them. The stored name is
// HTML-escaped.
func (s *AccountService) Register(ctx context.Context, r Registration) (Token, error) {
	if err := validate.Safe(
		validate.F("name", r.Name),
		validate.F("email", r.Email),
		validate.F("password", r.Password),
	); err != nil {
		return Token{}, err
	}
	if !validate.SafeBirthdate(r.Birthdate) {
		return Token{}, core.Invalid("birthdate", core.UnsafeInputMessage)
	}
	if err := checkName(r.Name); err != nil {
		return Token{}, err
	}
	if !validate.ValidEmail(r.Email) {
		return Token{}, core.Invalid("email", "invalid email address")
	}
	if !validate.ValidBirthdate(r.Birthdate) {
		return Token{}, core.Invalid("birthdate", "must be DD/MM/YYYY")
	}
	if !r.Type.Valid() {
		return Token{}, core.Invalid("type", "must be personal or business")
	}
	if err := validate.CheckNewPassword("password", r.Password); err != nil {
		return Token{}, err
	}

	if _, err := s.users.GetUserByEmail(ctx, r.Email); err == nil {
		slog.WarnContext(ctx, "Registration with existing email", "email", r.Email)
		return Token{}, fmt.Errorf("email already registered: %w", core.ErrConflict)
	} else if !errors.Is(err, core.ErrNotFound) {
		return Token{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return Token{}, err
	}
	now := s.now().UTC()
	u := core.User{
		ID:           uuid.NewString(),
		Name:         validate.Sanitize(r.Name),
		Email:        r.Email,
		PasswordHash: hash,
		Type:         r.Type,
		Birthdate:    r.Birthdate,
		Preferences:  core.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.PutUser(ctx, u); err != nil {
		return Token{}, fmt.Errorf("save user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "email", u.Email)
	return s.issue(u.Email)
}

// Login exchanges credentials for a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (Token, error) {
	if err := validate.Safe(validate.F("username", email), validate.F("password", password)); err != nil {
		return Token{}, err
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Login for unknown email", "email", email)
		return Token{}, fmt.Errorf("incorrect credentials: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return Token{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		slog.WarnContext(ctx, "Login with wrong password", "email", email)
		return Token{}, fmt.Errorf("incorrect credentials: %w", core.ErrUnauthorized)
	}
	slog.InfoContext(ctx, "Login succeeded", "user_id", u.ID)
	return s.issue(u.Email)
}

// Authenticate resolves a bearer token to the user it names.
func (s *AccountService) Authenticate(ctx context.Context, token string) (core.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("unknown subject: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, u core.User, oldPassword, newPassword string) error {
	if err := validate.Safe(
		validate.F("old_password", oldPassword),
		validate.F("new_password", newPassword),
	); err != nil {
		return err
	}
	if !auth.VerifyPassword(oldPassword, u.PasswordHash) {
		slog.WarnContext(ctx, "Password change with wrong current password", "user_id", u.ID)
		return core.Invalid("old_password", "incorrect current password")
	}
	if err := validate.CheckNewPassword("new_password", newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.users.PutUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	slog.InfoContext(ctx, "Password changed", "user_id", u.ID)
	return nil
}

// UpdateProfile applies name and email changes. When the email changes the
// caller's old token stops resolving, so a fresh one is returned.
func (s *AccountService) UpdateProfile(ctx context.Context, u core.User, p ProfileUpdate) (core.User, *Token, error) {
	if p.Name != nil {
		if err := validate.Safe(validate.F("name", *p.Name)); err != nil {
			return core.User{}, nil, err
		}
		if err := checkName(*p.Name); err != nil {
			return core.User{}, nil, err
		}
	}
	if p.Email != nil {
		if err := validate.Safe(validate.F("email", *p.Email)); err != nil {
			return core.User{}, nil, err
		}
		if !validate.ValidEmail(*p.Email) {
			return core.User{}, nil, core.Invalid("email", "invalid email address")
		}
	}

	oldEmail := u.Email
	if p.Name != nil {
		u.Name = validate.Sanitize(*p.Name)
	}
	emailChanged := p.Email != nil && *p.Email != oldEmail
	if emailChanged {
		if _, err := s.users.GetUserByEmail(ctx, *p.Email); err == nil {
			return core.User{}, nil, fmt.Errorf("email already in use: %w", core.ErrConflict)
		} else if !errors.Is(err, core.ErrNotFound) {
			return core.User{}, nil, fmt.Errorf("lookup email: %w", err)
		}
		u.Email = *p.Email
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.users.PutUser(ctx, u); err != nil {
		return core.User{}, nil, fmt.Errorf("save user: %w", err)
	}

	if !emailChanged {
		slog.InfoContext(ctx, "Profile updated", "user_id", u.ID)
		return u, nil, nil
	}
	slog.InfoContext(ctx, "Email changed", "user_id", u.ID, "from", oldEmail, "to", u.Email)
	tok, err := s.issue(u.Email)
	if err != nil {
		return core.User{}, nil, err
	}
	return u, &tok, nil
}

// EmailAvailable reports whether no user holds email.
func (s *AccountService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	if err := validate.Safe(validate.F("email", email)); err != nil {
		return false, err
	}
	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup email: %w", err)
	default:
		return false, nil
	}
}

func (s *AccountService) UpdatePreferences(ctx context.Context, u core.User, p PreferencesUpdate) (core.Preferences, error) {
	prefs := u.Preferences
	if p.Theme != nil {
		if *p.Theme != "light" && *p.Theme != "dark" {
			return core.Preferences{}, core.Invalid("theme", "must be light or dark")
		}
		prefs.Theme = *p.Theme
	}
	if p.Language != nil {
		if err := checkPreferenceText("language", *p.Language); err != nil {
			return core.Preferences{}, err
		}
		prefs.Language = *p.Language
	}
	if p.Currency != nil {
		if err := checkPreferenceText("currency", *p.Currency); err != nil {
			return core.Preferences{}, err
		}
		prefs.Currency = *p.Currency
	}
	if p.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.EmailNotifications != nil {
		prefs.EmailNotifications = *p.EmailNotifications
	}
	if p.DashboardWidgets != nil {
		for _, w := range p.DashboardWidgets {
			if err := checkPreferenceText("dashboard_widgets", w); err != nil {
				return core.Preferences{}, err
			}
		}
		prefs.DashboardWidgets = append([]string{}, p.DashboardWidgets...)
	}

	u.Preferences = prefs
	u.UpdatedAt = s.now().UTC()
	if err := s.users.PutUser(ctx, u); err != nil {
		return core.Preferences{}, fmt.Errorf("save user: %w", err)
	}
	slog.InfoContext(ctx, "Preferences updated", "user_id", u.ID)
	return prefs, nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return core.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > core.MaxNameLen {
		return core.Invalid("name", "too long")
	}
	return nil
}

func checkPreferenceText(field, v string) error {
	if err := validate.Safe(validate.F(field, v)); err != nil {
		return err
	}
	if strings.TrimSpace(v) == "" {
		return core.Invalid(field, "must not be empty")
	}
	return nil
}
