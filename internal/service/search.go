package service

import (
	"strings"
	"unicode/utf8"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
)

// Search matches query case-insensitively against every message the
// caller can see. Channel matches come before DM matches, oldest first.
func (s *Service) Search(token, query string) ([]models.Message, error) {
	if n := utf8.RuneCountInString(query); n < 1 || n > maxMessageLength {
		return nil, apperr.BadRequest("query must be between 1 and %d characters", maxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	out := []models.Message{}
	collect := func(c models.Container) {
		if !c.HasMember(u.ID) {
			return
		}
		for _, m := range *c.MessageList() {
			if strings.Contains(strings.ToLower(m.Text), needle) {
				out = append(out, m.ViewFor(u.ID))
			}
		}
	}
	for _, c := range s.state.Channels() {
		collect(c)
	}
	for _, d := range s.state.DMs() {
		collect(d)
	}
	return out, nil
}
