package service

import (
	"context"
	"unicode/utf8"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

type ChannelSummary struct {
	ChannelID int    `json:"channelId"`
	Name      string `json:"name"`
}

type ChannelDetails struct {
	Name         string           `json:"name"`
	IsPublic     bool             `json:"isPublic"`
	OwnerMembers []models.Profile `json:"ownerMembers"`
	AllMembers   []models.Profile `json:"allMembers"`
}

func (s *Service) CreateChannel(ctx context.Context, token, name string, isPublic bool) (int, error) {
	if n := utf8.RuneCountInString(name); n < 1 || n > maxChannelName {
		return 0, apperr.BadRequest("channel name must be between 1 and %d characters", maxChannelName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}

	c := &models.Channel{
		Name:     name,
		IsPublic: isPublic,
		Owners:   []int{u.ID},
		Members:  []int{u.ID},
		Messages: []*models.Message{},
	}
	s.state.AddChannel(c)
	s.addChannelsExist(1)
	s.addChannelsJoined(u, 1)
	s.persist(ctx)

	s.logger.Info("channel created",
		zap.Int("channel_id", c.ID),
		zap.Int("user_id", u.ID),
		zap.Bool("public", isPublic),
	)
	return c.ID, nil
}

func (s *Service) JoinChannel(ctx context.Context, token string, channelID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok {
		return apperr.BadRequest("channel %d does not exist", channelID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if c.HasMember(u.ID) {
		return apperr.BadRequest("user is already a member of the channel")
	}
	if !c.IsPublic && !u.IsGlobalOwner() {
		return apperr.Forbidden("channel is private")
	}

	c.Members = append(c.Members, u.ID)
	s.addChannelsJoined(u, 1)
	s.persist(ctx)
	return nil
}

func (s *Service) InviteToChannel(ctx context.Context, token string, channelID, uid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok {
		return apperr.BadRequest("channel %d does not exist", channelID)
	}
	target, ok := s.state.User(uid)
	if !ok {
		return apperr.BadRequest("user %d does not exist", uid)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if !c.HasMember(u.ID) {
		return apperr.Forbidden("you are not a member of the channel")
	}
	if c.HasMember(target.ID) {
		return apperr.BadRequest("user is already a member of the channel")
	}

	c.Members = append(c.Members, target.ID)
	s.addChannelsJoined(target, 1)
	s.notify(target, containerNotification(c, u.Handle+" added you to "+c.Name))
	s.persist(ctx)
	return nil
}

// LeaveChannel removes the caller from members and owners. Unlike
// RemoveOwner, it does not protect the last owner.
func (s *Service) LeaveChannel(ctx context.Context, token string, channelID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok {
		return apperr.BadRequest("channel %d does not exist", channelID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if !c.HasMember(u.ID) {
		return apperr.Forbidden("you are not a member of the channel")
	}

	c.Members = models.Remove(c.Members, u.ID)
	c.Owners = models.Remove(c.Owners, u.ID)
	s.addChannelsJoined(u, -1)
	s.persist(ctx)
	return nil
}

func (s *Service) AddOwner(ctx context.Context, token string, channelID, uid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, target, u, err := s.ownerChange(token, channelID, uid)
	if err != nil {
		return err
	}
	if !c.HasMember(target.ID) {
		return apperr.BadRequest("user is not a member of the channel")
	}
	if c.HasOwner(target.ID) {
		return apperr.BadRequest("user is already an owner of the channel")
	}

	c.Owners = append(c.Owners, target.ID)
	s.persist(ctx)
	s.logger.Debug("owner added", zap.Int("channel_id", c.ID), zap.Int("by", u.ID), zap.Int("owner", target.ID))
	return nil
}

// RemoveOwner demotes uid to a plain member. The last owner cannot be
// removed.
func (s *Service) RemoveOwner(ctx context.Context, token string, channelID, uid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, target, u, err := s.ownerChange(token, channelID, uid)
	if err != nil {
		return err
	}
	if !c.HasOwner(target.ID) {
		return apperr.BadRequest("user is not an owner of the channel")
	}
	if len(c.Owners) <= 1 {
		return apperr.BadRequest("a channel must have at least 1 owner")
	}

	c.Owners = models.Remove(c.Owners, target.ID)
	s.persist(ctx)
	s.logger.Debug("owner removed", zap.Int("channel_id", c.ID), zap.Int("by", u.ID), zap.Int("owner", target.ID))
	return nil
}

// ownerChange runs the checks shared by AddOwner and RemoveOwner.
func (s *Service) ownerChange(token string, channelID, uid int) (*models.Channel, *models.User, *models.User, error) {
	c, ok := s.state.Channel(channelID)
	if !ok {
		return nil, nil, nil, apperr.BadRequest("channel %d does not exist", channelID)
	}
	target, ok := s.state.User(uid)
	if !ok {
		return nil, nil, nil, apperr.BadRequest("user %d does not exist", uid)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return nil, nil, nil, err
	}
	if !canModerate(u, c, 0, false) {
		return nil, nil, nil, apperr.Forbidden("you do not have owner permissions in the channel")
	}
	return c, target, u, nil
}

func (s *Service) ChannelDetails(token string, channelID int) (ChannelDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok {
		return ChannelDetails{}, apperr.BadRequest("channel %d does not exist", channelID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return ChannelDetails{}, err
	}
	if !c.HasMember(u.ID) {
		return ChannelDetails{}, apperr.Forbidden("you are not a member of the channel")
	}

	return ChannelDetails{
		Name:         c.Name,
		IsPublic:     c.IsPublic,
		OwnerMembers: s.profiles(c.Owners),
		AllMembers:   s.profiles(c.Members),
	}, nil
}

// ListChannels returns the channels the caller belongs to.
func (s *Service) ListChannels(token string) ([]ChannelSummary, error) {
	return s.listChannels(token, true)
}

// ListAllChannels returns every channel, private ones included.
func (s *Service) ListAllChannels(token string) ([]ChannelSummary, error) {
	return s.listChannels(token, false)
}

func (s *Service) listChannels(token string, mineOnly bool) ([]ChannelSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	out := []ChannelSummary{}
	for _, c := range s.state.Channels() {
		if mineOnly && !c.HasMember(u.ID) {
			continue
		}
		out = append(out, ChannelSummary{ChannelID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (s *Service) ChannelMessages(token string, channelID, start int) (Page, error) {
	if start < 0 {
		return Page{}, apperr.BadRequest("start must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Channel(channelID)
	if !ok {
		return Page{}, apperr.BadRequest("channel %d does not exist", channelID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return Page{}, err
	}
	if !c.HasMember(u.ID) {
		return Page{}, apperr.Forbidden("you are not a member of the channel")
	}
	return page(c.Messages, u.ID, start)
}

func (s *Service) profiles(ids []int) []models.Profile {
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.state.User(id); ok {
			out = append(out, u.Profile())
		}
	}
	return out
}
