package service

import (
	"context"
	"slices"
	"strings"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

type DMSummary struct {
	DMID int    `json:"dmId"`
	Name string `json:"name"`
}

type DMDetails struct {
	Name    string           `json:"name"`
	Members []models.Profile `json:"members"`
}

// CreateDM starts a DM owned by the caller with every user in uids.
func (s *Service) CreateDM(ctx context.Context, token string, uids []int) (int, error) {
	seen := make(map[int]struct{}, len(uids))
	for _, id := range uids {
		if _, dup := seen[id]; dup {
			return 0, apperr.BadRequest("duplicate user id %d", id)
		}
		seen[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	invitees := make([]*models.User, 0, len(uids))
	for _, id := range uids {
		u, ok := s.state.User(id)
		if !ok {
			return 0, apperr.BadRequest("user %d does not exist", id)
		}
		invitees = append(invitees, u)
	}
	owner, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}
	if _, self := seen[owner.ID]; self {
		return 0, apperr.BadRequest("the creator is already part of the DM")
	}

	handles := []string{owner.Handle}
	for _, u := range invitees {
		handles = append(handles, u.Handle)
	}
	slices.Sort(handles)

	d := &models.DM{
		Name:     strings.Join(handles, ", "),
		OwnerID:  owner.ID,
		Members:  slices.Clone(uids),
		Messages: []*models.Message{},
	}
	if d.Members == nil {
		d.Members = []int{}
	}
	s.state.AddDM(d)
	s.addDMsExist(1)
	s.addDMsJoined(owner, 1)
	for _, u := range invitees {
		s.addDMsJoined(u, 1)
		s.notify(u, containerNotification(d, owner.Handle+" added you to "+d.Name))
	}
	s.persist(ctx)

	s.logger.Info("dm created", zap.Int("dm_id", d.ID), zap.Int("owner", owner.ID), zap.Int("members", len(uids)))
	return d.ID, nil
}

func (s *Service) ListDMs(token string) ([]DMSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	out := []DMSummary{}
	for _, d := range s.state.DMs() {
		if d.HasMember(u.ID) {
			out = append(out, DMSummary{DMID: d.ID, Name: d.Name})
		}
	}
	return out, nil
}

func (s *Service) DMDetails(token string, dmID int) (DMDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, _, err := s.dmMember(token, dmID)
	if err != nil {
		return DMDetails{}, err
	}
	return DMDetails{Name: d.Name, Members: s.profiles(d.Participants())}, nil
}

// LeaveDM removes the caller. An owner who leaves hands ownership to the
// first remaining member.
func (s *Service) LeaveDM(ctx context.Context, token string, dmID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, u, err := s.dmMember(token, dmID)
	if err != nil {
		return err
	}

	if d.HasOwner(u.ID) {
		d.OwnerID = 0
		if len(d.Members) > 0 {
			d.OwnerID = d.Members[0]
			d.Members = d.Members[1:]
		}
	} else {
		d.Members = models.Remove(d.Members, u.ID)
	}
	s.addDMsJoined(u, -1)
	s.persist(ctx)
	return nil
}

// RemoveDM deletes the DM with its messages and cancels messages still
// scheduled for it. Only the owner may remove it.
func (s *Service) RemoveDM(ctx context.Context, token string, dmID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.state.DM(dmID)
	if !ok {
		return apperr.BadRequest("dm %d does not exist", dmID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if !d.HasOwner(u.ID) {
		return apperr.Forbidden("only the owner can remove the dm")
	}

	cancelled := s.scheduler.Cancel(d.Ref().Key())
	participants := d.Participants()
	messages := len(d.Messages)
	s.state.RemoveDM(d.ID)

	s.addDMsExist(-1)
	s.addMessagesExist(-messages)
	for _, id := range participants {
		if p, ok := s.state.User(id); ok {
			s.addDMsJoined(p, -1)
		}
	}
	s.persist(ctx)

	s.logger.Info("dm removed",
		zap.Int("dm_id", dmID),
		zap.Int("messages", messages),
		zap.Int("cancelled_sends", cancelled),
	)
	return nil
}

func (s *Service) DMMessages(token string, dmID, start int) (Page, error) {
	if start < 0 {
		return Page{}, apperr.BadRequest("start must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, u, err := s.dmMember(token, dmID)
	if err != nil {
		return Page{}, err
	}
	return page(d.Messages, u.ID, start)
}

// dmMember checks that dmID exists and the caller belongs to it.
func (s *Service) dmMember(token string, dmID int) (*models.DM, *models.User, error) {
	d, ok := s.state.DM(dmID)
	if !ok {
		return nil, nil, apperr.BadRequest("dm %d does not exist", dmID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return nil, nil, err
	}
	if !d.HasMember(u.ID) {
		return nil, nil, apperr.Forbidden("you are not a member of the dm")
	}
	return d, u, nil
}
