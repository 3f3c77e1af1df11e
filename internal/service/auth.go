package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/auth"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

const (
	maxHandleLength = 20
	tokenAttempts   = 5
)

// Session is returned by register and login.
type Session struct {
	Token      string `json:"token"`
	AuthUserID int    `json:"authUserId"`
}

func (s *Service) Register(ctx context.Context, email, password, nameFirst, nameLast string) (Session, error) {
	if err := s.validateEmail(email); err != nil {
		return Session{}, err
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return Session{}, apperr.BadRequest("password must be at least %d characters", minPasswordLength)
	}
	if err := validateName("first name", nameFirst); err != nil {
		return Session{}, err
	}
	if err := validateName("last name", nameLast); err != nil {
		return Session{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.state.UserByEmail(email); taken {
		return Session{}, apperr.BadRequest("email already in use")
	}

	ts := s.unixNow()
	u := &models.User{
		ID:            s.state.UserCount() + 1,
		Email:         email,
		NameFirst:     nameFirst,
		NameLast:      nameLast,
		Handle:        s.deriveHandle(nameFirst, nameLast),
		PasswordHash:  hash,
		Permission:    models.PermissionMember,
		Tokens:        []string{},
		Notifications: []models.Notification{},
	}
	if s.photos != nil {
		u.ProfileImgURL = s.photos.DefaultURL()
	}
	u.Stats.ChannelsJoined.Record(0, ts)
	u.Stats.DMsJoined.Record(0, ts)
	u.Stats.MessagesSent.Record(0, ts)

	if s.state.UserCount() == 0 {
		u.Permission = models.PermissionGlobalOwner
		ws := s.state.Workspace()
		ws.ChannelsExist.Record(0, ts)
		ws.DMsExist.Record(0, ts)
		ws.MessagesExist.Record(0, ts)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return Session{}, err
	}
	s.state.AddUser(u)
	s.persist(ctx)

	s.logger.Info("user registered",
		zap.Int("user_id", u.ID),
		zap.String("handle", u.Handle),
		zap.Bool("global_owner", u.IsGlobalOwner()),
	)
	return Session{Token: token, AuthUserID: u.ID}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.UserByEmail(email)
	if !ok || !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, apperr.BadRequest("invalid email or password")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return Session{}, err
	}
	s.persist(ctx)
	return Session{Token: token, AuthUserID: u.ID}, nil
}

// Logout ends exactly the session identified by token.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	s.state.RemoveToken(s.digester.Digest(token))
	s.disconnect(u.ID, token)
	s.persist(ctx)
	return nil
}

// RequestPasswordReset logs the user out everywhere and mails a reset
// code. It succeeds for unknown emails too, and a failed mail is only
// logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	s.mu.Lock()
	u, ok := s.state.UserByEmail(email)
	if !ok {
		s.mu.Unlock()
		return nil
	}

	code := auth.NewResetCode()
	s.state.ClearTokens(u)
	s.disconnect(u.ID, "")
	u.ResetCode = s.digester.Digest(code)
	s.persist(ctx)
	to, name, uid := u.Email, u.NameFirst, u.ID
	s.mu.Unlock()

	if err := s.mailer.SendPasswordReset(to, name, code); err != nil {
		s.logger.Warn("failed to send reset mail", zap.Int("user_id", uid), zap.Error(err))
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, resetCode, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return apperr.BadRequest("password must be at least %d characters", minPasswordLength)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.UserByResetCode(s.digester.Digest(resetCode))
	if !ok {
		return apperr.BadRequest("invalid reset code")
	}
	u.PasswordHash = hash
	u.ResetCode = ""
	s.persist(ctx)
	return nil
}

// ResolveToken returns the id of the user holding token.
func (s *Service) ResolveToken(token string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// issueToken records a fresh session for u and returns the raw token.
func (s *Service) issueToken(u *models.User) (string, error) {
	for range tokenAttempts {
		token, err := s.issuer.Issue(u.ID)
		if err != nil {
			return "", err
		}
		digest := s.digester.Digest(token)
		if s.state.TokenExists(digest) {
			continue
		}
		s.state.AddToken(u, digest)
		return token, nil
	}
	return "", fmt.Errorf("issue token: %d digest collisions for user %d", tokenAttempts, u.ID)
}

// deriveHandle lowercases first+last name, keeps ASCII letters and
// digits, cuts to 20 characters and appends 0, 1, ... until unused.
func (s *Service) deriveHandle(nameFirst, nameLast string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(nameFirst + nameLast) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > maxHandleLength {
		base = base[:maxHandleLength]
	}

	handle := base
	for n := 0; ; n++ {
		if _, taken := s.state.UserByHandle(handle); !taken {
			return handle
		}
		handle = base + strconv.Itoa(n)
	}
}

func (s *Service) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.BadRequest("invalid email")
	}
	return nil
}

func validateName(field, name string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLength {
		return apperr.BadRequest("%s must be between 1 and %d characters", field, maxNameLength)
	}
	return nil
}
