package service

import (
	"context"
	"regexp"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

var tagPattern = regexp.MustCompile(`@(\w+)`)

// Page is one page of a container's messages, newest first. End is -1 on
// the last page.
type Page struct {
	Messages []models.Message `json:"messages"`
	Start    int              `json:"start"`
	End      int              `json:"end"`
}

func (s *Service) SendMessage(ctx context.Context, token string, channelID int, text string) (int, error) {
	return s.send(ctx, token, models.ContainerRef{Kind: models.KindChannel, ID: channelID}, text)
}

func (s *Service) SendDM(ctx context.Context, token string, dmID int, text string) (int, error) {
	return s.send(ctx, token, models.ContainerRef{Kind: models.KindDM, ID: dmID}, text)
}

func (s *Service) send(ctx context.Context, token string, ref models.ContainerRef, text string) (int, error) {
	if err := validateMessage(text); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, u, err := s.memberOf(token, ref)
	if err != nil {
		return 0, err
	}
	m := s.post(c, u, s.state.NextMessageID(), text)
	s.persist(ctx)
	return m.ID, nil
}

// SendLater reserves a message id now and posts the message at timeSent
// (unix seconds).
func (s *Service) SendLater(ctx context.Context, token string, channelID int, text string, timeSent int64) (int, error) {
	return s.sendLater(ctx, token, models.ContainerRef{Kind: models.KindChannel, ID: channelID}, text, timeSent)
}

func (s *Service) SendLaterDM(ctx context.Context, token string, dmID int, text string, timeSent int64) (int, error) {
	return s.sendLater(ctx, token, models.ContainerRef{Kind: models.KindDM, ID: dmID}, text, timeSent)
}

func (s *Service) sendLater(ctx context.Context, token string, ref models.ContainerRef, text string, timeSent int64) (int, error) {
	if err := validateMessage(text); err != nil {
		return 0, err
	}

	if timeSent < s.unixNow() {
		return 0, apperr.BadRequest("timeSent is in the past")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, u, err := s.memberOf(token, ref)
	if err != nil {
		return 0, err
	}

	id := s.state.NextMessageID()
	authorID := u.ID
	s.scheduler.At(time.Unix(timeSent, 0), ref.Key(), func() {
		s.deliverLater(ref, authorID, id, text)
	})
	s.persist(ctx)

	s.logger.Debug("message scheduled",
		zap.String("container", ref.Key()),
		zap.Int("message_id", id),
		zap.Int64("time_sent", timeSent),
	)
	return id, nil
}

// deliverLater posts a scheduled message against the current state. The
// message is dropped if its container or its author's membership is gone.
func (s *Service) deliverLater(ref models.ContainerRef, authorID, id int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.state.Container(ref)
	author, known := s.state.User(authorID)
	if !ok || !known || !c.HasMember(authorID) {
		s.logger.Warn("dropping scheduled message",
			zap.String("container", ref.Key()),
			zap.Int("message_id", id),
			zap.Int("user_id", authorID),
		)
		return
	}
	s.post(c, author, id, text)
	s.persist(context.Background())
}

// EditMessage replaces the text of a message. Empty text removes it.
func (s *Service) EditMessage(ctx context.Context, token string, messageID int, text string) error {
	if utf8.RuneCountInString(text) > maxMessageLength {
		return apperr.BadRequest("message must be at most %d characters", maxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, c, u, err := s.visibleMessage(token, messageID)
	if err != nil {
		return err
	}
	if !canModerate(u, c, m.UID, true) {
		return apperr.Forbidden("you cannot edit this message")
	}

	if text == "" {
		s.state.RemoveMessage(m.ID)
		s.addMessagesExist(-1)
	} else {
		m.Text = text
		if author, ok := s.state.User(m.UID); ok {
			s.notifyTags(c, author, text)
		}
	}
	s.persist(ctx)
	return nil
}

func (s *Service) RemoveMessage(ctx context.Context, token string, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, c, u, err := s.visibleMessage(token, messageID)
	if err != nil {
		return err
	}
	if !canModerate(u, c, m.UID, true) {
		return apperr.Forbidden("you cannot remove this message")
	}

	s.state.RemoveMessage(m.ID)
	s.addMessagesExist(-1)
	s.persist(ctx)
	return nil
}

// ShareMessage posts the text of messageID, followed by text, to exactly
// one of channelID or dmID. The unused one must be -1.
func (s *Service) ShareMessage(ctx context.Context, token string, messageID int, text string, channelID, dmID int) (int, error) {
	var dest models.ContainerRef
	switch {
	case channelID != models.NoContainer && dmID == models.NoContainer:
		dest = models.ContainerRef{Kind: models.KindChannel, ID: channelID}
	case dmID != models.NoContainer && channelID == models.NoContainer:
		dest = models.ContainerRef{Kind: models.KindDM, ID: dmID}
	default:
		return 0, apperr.BadRequest("exactly one of channelId and dmId must be given")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return 0, apperr.BadRequest("message must be at most %d characters", maxMessageLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	og, src, ok := s.state.FindMessage(messageID)
	if !ok {
		return 0, apperr.BadRequest("message %d does not exist", messageID)
	}
	if utf8.RuneCountInString(og.Text)+utf8.RuneCountInString(text) > maxMessageLength {
		return 0, apperr.BadRequest("shared message must be at most %d characters", maxMessageLength)
	}
	to, err := s.container(dest)
	if err != nil {
		return 0, err
	}
	u, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}
	if !src.HasMember(u.ID) {
		return 0, apperr.Forbidden("you are not a member of the %s holding the message", src.Ref().Kind)
	}
	if !to.HasMember(u.ID) {
		return 0, apperr.Forbidden("you are not a member of the destination %s", dest.Kind)
	}

	m := s.post(to, u, s.state.NextMessageID(), og.Text+text)
	s.persist(ctx)
	return m.ID, nil
}

func (s *Service) PinMessage(ctx context.Context, token string, messageID int) error {
	return s.setPinned(ctx, token, messageID, true)
}

func (s *Service) UnpinMessage(ctx context.Context, token string, messageID int) error {
	return s.setPinned(ctx, token, messageID, false)
}

func (s *Service) setPinned(ctx context.Context, token string, messageID int, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, c, u, err := s.visibleMessage(token, messageID)
	if err != nil {
		return err
	}
	if !canModerate(u, c, m.UID, false) {
		return apperr.Forbidden("you do not have owner permissions in this %s", c.Ref().Kind)
	}
	if m.IsPinned == pinned {
		if pinned {
			return apperr.BadRequest("message is already pinned")
		}
		return apperr.BadRequest("message is not pinned")
	}

	m.IsPinned = pinned
	s.persist(ctx)
	return nil
}

// ReactMessage adds the caller to reactID on the message and notifies
// the author if they are still in the container.
func (s *Service) ReactMessage(ctx context.Context, token string, messageID, reactID int) error {
	if reactID != ReactThumbsUp {
		return apperr.BadRequest("invalid react id %d", reactID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, c, u, err := s.visibleMessage(token, messageID)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(m.Reacts, func(r models.React) bool { return r.ReactID == reactID })
	switch {
	case i < 0:
		m.Reacts = append(m.Reacts, models.React{ReactID: reactID, UIDs: []int{u.ID}})
	case slices.Contains(m.Reacts[i].UIDs, u.ID):
		return apperr.BadRequest("you have already reacted with this react")
	default:
		m.Reacts[i].UIDs = append(m.Reacts[i].UIDs, u.ID)
	}

	if author, ok := s.state.User(m.UID); ok && c.HasMember(author.ID) {
		s.notify(author, containerNotification(c, u.Handle+" reacted to your message in "+c.DisplayName()))
	}
	s.persist(ctx)
	return nil
}

// UnreactMessage drops the caller from reactID. A react nobody holds any
// more is removed.
func (s *Service) UnreactMessage(ctx context.Context, token string, messageID, reactID int) error {
	if reactID != ReactThumbsUp {
		return apperr.BadRequest("invalid react id %d", reactID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, u, err := s.visibleMessage(token, messageID)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(m.Reacts, func(r models.React) bool { return r.ReactID == reactID })
	if i < 0 || !slices.Contains(m.Reacts[i].UIDs, u.ID) {
		return apperr.BadRequest("you have not reacted with this react")
	}
	m.Reacts[i].UIDs = models.Remove(m.Reacts[i].UIDs, u.ID)
	if len(m.Reacts[i].UIDs) == 0 {
		m.Reacts = slices.Delete(m.Reacts, i, i+1)
	}
	s.persist(ctx)
	return nil
}

// post appends a new message by author to c and sends tag notifications.
func (s *Service) post(c models.Container, author *models.User, id int, text string) *models.Message {
	m := s.appendMessage(c, author, id, text)
	s.notifyTags(c, author, text)
	return m
}

// appendMessage stores a new message and updates statistics.
func (s *Service) appendMessage(c models.Container, author *models.User, id int, text string) *models.Message {
	m := &models.Message{
		ID:       id,
		UID:      author.ID,
		Text:     text,
		TimeSent: s.unixNow(),
		Reacts:   []models.React{},
	}
	s.state.AppendMessage(c, m)
	s.addMessagesExist(1)
	s.addMessagesSent(author, 1)
	return m
}

// notifyTags notifies every member of c tagged in text, once per handle.
func (s *Service) notifyTags(c models.Container, sender *models.User, text string) {
	seen := make(map[string]struct{})
	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		handle := match[1]
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}

		target, ok := s.state.UserByHandle(handle)
		if !ok || !c.HasMember(target.ID) {
			continue
		}
		msg := sender.Handle + " tagged you in " + c.DisplayName() + ": " + preview(text)
		s.notify(target, containerNotification(c, msg))
	}
}

// container resolves ref or fails with BadRequest.
func (s *Service) container(ref models.ContainerRef) (models.Container, error) {
	c, ok := s.state.Container(ref)
	if !ok {
		return nil, apperr.BadRequest("%s %d does not exist", ref.Kind, ref.ID)
	}
	return c, nil
}

// memberOf resolves ref and the caller, who must be a member.
func (s *Service) memberOf(token string, ref models.ContainerRef) (models.Container, *models.User, error) {
	c, err := s.container(ref)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.authenticate(token)
	if err != nil {
		return nil, nil, err
	}
	if !c.HasMember(u.ID) {
		return nil, nil, apperr.Forbidden("you are not a member of the %s", ref.Kind)
	}
	return c, u, nil
}

// visibleMessage finds messageID in a container the caller belongs to.
// A message outside the caller's containers counts as missing.
func (s *Service) visibleMessage(token string, messageID int) (*models.Message, models.Container, *models.User, error) {
	m, c, ok := s.state.FindMessage(messageID)
	if !ok {
		return nil, nil, nil, apperr.BadRequest("message %d does not exist", messageID)
	}
	u, err := s.authenticate(token)
	if err != nil {
		return nil, nil, nil, err
	}
	if !c.HasMember(u.ID) {
		return nil, nil, nil, apperr.BadRequest("message %d is not in a %s you belong to", messageID, c.Ref().Kind)
	}
	return m, c, u, nil
}

func page(msgs []*models.Message, viewer, start int) (Page, error) {
	total := len(msgs)
	if start > total {
		return Page{}, apperr.BadRequest("start %d is beyond the %d messages", start, total)
	}

	end := start + pageSize
	stop := min(end, total)
	if end > total {
		end = -1
	}

	out := make([]models.Message, 0, stop-start)
	for i := start; i < stop; i++ {
		out = append(out, msgs[total-1-i].ViewFor(viewer))
	}
	return Page{Messages: out, Start: start, End: end}, nil
}

func validateMessage(text string) error {
	if n := utf8.RuneCountInString(text); n < 1 || n > maxMessageLength {
		return apperr.BadRequest("message must be between 1 and %d characters", maxMessageLength)
	}
	return nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= tagPreviewLength {
		return text
	}
	return string([]rune(text)[:tagPreviewLength])
}
