package service

import (
	"slices"

	"github.com/lalith-99/echohub/internal/models"
)

func (s *Service) addChannelsJoined(u *models.User, delta int) {
	u.Stats.ChannelsJoined.Add(delta, s.unixNow())
	u.Stats.InvolvementRate = s.involvementRate(u)
}

func (s *Service) addDMsJoined(u *models.User, delta int) {
	u.Stats.DMsJoined.Add(delta, s.unixNow())
	u.Stats.InvolvementRate = s.involvementRate(u)
}

func (s *Service) addMessagesSent(u *models.User, delta int) {
	u.Stats.MessagesSent.Add(delta, s.unixNow())
	u.Stats.InvolvementRate = s.involvementRate(u)
}

func (s *Service) addChannelsExist(delta int) {
	s.state.Workspace().ChannelsExist.Add(delta, s.unixNow())
}

func (s *Service) addDMsExist(delta int) {
	s.state.Workspace().DMsExist.Add(delta, s.unixNow())
}

func (s *Service) addMessagesExist(delta int) {
	s.state.Workspace().MessagesExist.Add(delta, s.unixNow())
}

// involvementRate is the user's share of all channels, DMs and messages,
// capped at 1.
func (s *Service) involvementRate(u *models.User) float64 {
	total := len(s.state.Channels()) + len(s.state.DMs()) + s.state.TotalMessages()
	if total == 0 {
		return 0
	}
	own := u.Stats.ChannelsJoined.Latest() + u.Stats.DMsJoined.Latest() + u.Stats.MessagesSent.Latest()
	return min(1, float64(own)/float64(total))
}

// utilizationRate is the fraction of registered users that belong to at
// least one channel or DM.
func (s *Service) utilizationRate() float64 {
	if s.state.UserCount() == 0 {
		return 0
	}
	active := make(map[int]struct{})
	for _, c := range s.state.Channels() {
		for _, uid := range c.Members {
			active[uid] = struct{}{}
		}
	}
	for _, d := range s.state.DMs() {
		for _, uid := range d.Participants() {
			active[uid] = struct{}{}
		}
	}
	return float64(len(active)) / float64(s.state.UserCount())
}

// UserStats returns the caller's series with a freshly computed
// involvement rate.
func (s *Service) UserStats(token string) (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return models.UserStats{}, err
	}
	u.Stats.InvolvementRate = s.involvementRate(u)

	return models.UserStats{
		ChannelsJoined:  slices.Clone(u.Stats.ChannelsJoined),
		DMsJoined:       slices.Clone(u.Stats.DMsJoined),
		MessagesSent:    slices.Clone(u.Stats.MessagesSent),
		InvolvementRate: u.Stats.InvolvementRate,
	}, nil
}

func (s *Service) UsersStats(token string) (models.WorkspaceStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.authenticate(token); err != nil {
		return models.WorkspaceStats{}, err
	}
	ws := s.state.Workspace()
	ws.UtilizationRate = s.utilizationRate()

	return models.WorkspaceStats{
		ChannelsExist:   slices.Clone(ws.ChannelsExist),
		DMsExist:        slices.Clone(ws.DMsExist),
		MessagesExist:   slices.Clone(ws.MessagesExist),
		UtilizationRate: ws.UtilizationRate,
	}, nil
}
