package service

import (
	"context"
	"strings"
	"time"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

type StandupStatus struct {
	IsActive   bool   `json:"isActive"`
	TimeFinish *int64 `json:"timeFinish"`
}

// StartStandup opens a standup window of length seconds and returns the
// unix time at which it closes.
func (s *Service) StartStandup(ctx context.Context, token string, channelID, length int) (int64, error) {
	if length < 0 {
		return 0, apperr.BadRequest("length must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, u, err := s.channelMember(token, channelID)
	if err != nil {
		return 0, err
	}
	if c.Standup.Active {
		return 0, apperr.BadRequest("a standup is already active in this channel")
	}

	c.Standup = models.Standup{
		Active:    true,
		Finish:    s.unixNow() + int64(length),
		StarterID: u.ID,
	}
	s.armStandup(c)
	s.persist(ctx)

	s.logger.Info("standup started",
		zap.Int("channel_id", c.ID),
		zap.Int("user_id", u.ID),
		zap.Int64("finish", c.Standup.Finish),
	)
	return c.Standup.Finish, nil
}

// SendStandup buffers "<handle>: <text>" for the active standup.
func (s *Service) SendStandup(ctx context.Context, token string, channelID int, text string) error {
	if err := validateMessage(text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, u, err := s.channelMember(token, channelID)
	if err != nil {
		return err
	}
	if !c.Standup.Active {
		return apperr.BadRequest("no standup is active in this channel")
	}

	c.Standup.Buffer += u.Handle + ": " + text + "\n"
	s.persist(ctx)
	return nil
}

func (s *Service) StandupActive(token string, channelID int) (StandupStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, _, err := s.channelMember(token, channelID)
	if err != nil {
		return StandupStatus{}, err
	}
	if !c.Standup.Active {
		return StandupStatus{}, nil
	}
	finish := c.Standup.Finish
	return StandupStatus{IsActive: true, TimeFinish: &finish}, nil
}

func (s *Service) armStandup(c *models.Channel) {
	channelID := c.ID
	s.scheduler.At(time.Unix(c.Standup.Finish, 0), c.Ref().Key(), func() {
		s.finishStandup(channelID)
	})
}

// rearmStandups schedules standups restored from a snapshot. Overdue ones
// finish right away.
func (s *Service) rearmStandups() {
	for _, c := range s.state.Channels() {
		if c.Standup.Active {
			s.armStandup(c)
			s.logger.Info("standup re-armed", zap.Int("channel_id", c.ID), zap.Int64("finish", c.Standup.Finish))
		}
	}
}

// finishStandup posts the buffer as one message by the starter. Tags in
// the buffer are not notified.
func (s *Service) finishStandup(channelID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok || !c.Standup.Active {
		return
	}

	standup := c.Standup
	c.Standup = models.Standup{}

	if standup.Buffer != "" {
		starter, ok := s.state.User(standup.StarterID)
		if !ok {
			s.logger.Warn("standup starter is gone, dropping buffer", zap.Int("channel_id", channelID))
		} else {
			s.appendMessage(c, starter, s.state.NextMessageID(), strings.TrimSuffix(standup.Buffer, "\n"))
		}
	}
	s.persist(context.Background())
	s.logger.Info("standup finished", zap.Int("channel_id", channelID))
}

func (s *Service) channelMember(token string, channelID int) (*models.Channel, *models.User, error) {
	c, ok := s.state.Channel(channelID)
	if !ok {
		return nil, nil, apperr.BadRequest("channel %d does not exist", channelID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return nil, nil, err
	}
	if !c.HasMember(u.ID) {
		return nil, nil, apperr.Forbidden("you are not a member of the channel")
	}
	return c, u, nil
}
