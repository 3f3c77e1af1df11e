package service

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
	"github.com/lalith-99/echohub/internal/photo"
	"go.uber.org/zap"
)

const minHandleLength = 3

func (s *Service) UserProfile(token string, uid int) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.authenticate(token); err != nil {
		return models.Profile{}, err
	}
	u, ok := s.state.User(uid)
	if !ok {
		return models.Profile{}, apperr.BadRequest("user %d does not exist", uid)
	}
	return u.Profile(), nil
}

func (s *Service) UsersAll(token string) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.authenticate(token); err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, s.state.UserCount())
	for _, u := range s.state.Users() {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (s *Service) SetName(ctx context.Context, token, nameFirst, nameLast string) error {
	if err := validateName("first name", nameFirst); err != nil {
		return err
	}
	if err := validateName("last name", nameLast); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	u.NameFirst, u.NameLast = nameFirst, nameLast
	s.persist(ctx)
	return nil
}

func (s *Service) SetEmail(ctx context.Context, token, email string) error {
	if err := s.validateEmail(email); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.state.UserByEmail(email); taken {
		return apperr.BadRequest("email already in use")
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	u.Email = email
	s.persist(ctx)
	return nil
}

func (s *Service) SetHandle(ctx context.Context, token, handle string) error {
	if !isAlphanumeric(handle) {
		return apperr.BadRequest("handle can only contain letters and digits")
	}
	if n := len(handle); n < minHandleLength || n > maxHandleLength {
		return apperr.BadRequest("handle must be between %d and %d characters", minHandleLength, maxHandleLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.state.UserByHandle(handle); taken {
		return apperr.BadRequest("handle already taken")
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	u.Handle = handle
	s.persist(ctx)
	return nil
}

// UploadPhoto downloads and crops a JPEG into the caller's profile
// picture. The download runs without holding the workspace lock.
func (s *Service) UploadPhoto(ctx context.Context, token, imgURL string, crop photo.Crop) error {
	if s.photos == nil {
		return apperr.BadRequest("profile photos are not enabled")
	}

	uid, err := s.ResolveToken(token)
	if err != nil {
		return err
	}

	url, err := s.photos.Upload(ctx, uid, imgURL, crop)
	if err != nil {
		if apperr.KindOf(err) == 0 {
			s.logger.Error("failed to store profile photo", zap.Int("user_id", uid), zap.Error(err))
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have ended while the photo was downloading.
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if u.ID != uid {
		return apperr.Forbidden("invalid token")
	}
	u.ProfileImgURL = url
	s.persist(ctx)
	return nil
}

// Notifications returns the latest 20 notifications, newest first.
func (s *Service) Notifications(token string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	all := u.Notifications
	if len(all) > notificationLimit {
		all = all[len(all)-notificationLimit:]
	}
	out := slices.Clone(all)
	slices.Reverse(out)
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

func isAlphanumeric(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
