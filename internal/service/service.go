// Package service implements every workspace operation. A Service owns
// the in-memory state and runs one operation at a time; each mutating
// operation ends by saving a snapshot.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/lalith-99/echohub/internal/auth"
	"github.com/lalith-99/echohub/internal/clock"
	"github.com/lalith-99/echohub/internal/mail"
	"github.com/lalith-99/echohub/internal/models"
	"github.com/lalith-99/echohub/internal/photo"
	"github.com/lalith-99/echohub/internal/repository"
	"github.com/lalith-99/echohub/internal/scheduler"
	"github.com/lalith-99/echohub/internal/store"
	"go.uber.org/zap"
)

const (
	pageSize          = 50
	notificationLimit = 20
	tagPreviewLength  = 20
	maxMessageLength  = 1000
	maxChannelName    = 20
	minPasswordLength = 6
	maxNameLength     = 50

	// ReactThumbsUp is the only valid react id.
	ReactThumbsUp = 1
)

// Notifier receives every notification right after it is stored. Live
// streams are tied to the session that opened them: Disconnect ends the
// streams of one session (or, with an empty session, of every session of
// the user) and DisconnectAll ends them all.
type Notifier interface {
	Publish(userID int, n models.Notification)
	Disconnect(userID int, session string) int
	DisconnectAll()
}

type Deps struct {
	Snapshots repository.SnapshotRepository
	Clock     clock.Clock
	Mailer    mail.Mailer
	Photos    *photo.Store
	Notifier  Notifier
	Logger    *zap.Logger

	// Secret keys token signatures and stored digests.
	Secret string
}

type Service struct {
	mu    sync.Mutex
	state *store.State

	snapshots repository.SnapshotRepository
	clock     clock.Clock
	scheduler *scheduler.Scheduler
	issuer    *auth.Issuer
	digester  *auth.Digester
	validate  *validator.Validate
	mailer    mail.Mailer
	photos    *photo.Store
	notifier  Notifier
	logger    *zap.Logger
}

// New restores the last saved snapshot and re-arms any standup that was
// still running when it was taken.
func New(ctx context.Context, deps Deps) (*Service, error) {
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("service: snapshot repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Mailer == nil {
		deps.Mailer = mail.LogMailer{Logger: deps.Logger}
	}

	snap, err := deps.Snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	s := &Service{
		state:     store.Restore(snap),
		snapshots: deps.Snapshots,
		clock:     deps.Clock,
		scheduler: scheduler.New(deps.Clock, deps.Logger),
		issuer:    auth.NewIssuer(deps.Secret, deps.Clock.Now),
		digester:  auth.NewDigester(deps.Secret),
		validate:  validator.New(),
		mailer:    deps.Mailer,
		photos:    deps.Photos,
		notifier:  deps.Notifier,
		logger:    deps.Logger.Named("service"),
	}

	s.rearmStandups()

	s.logger.Info("workspace loaded",
		zap.Int("users", s.state.UserCount()),
		zap.Int("channels", len(s.state.Channels())),
		zap.Int("dms", len(s.state.DMs())),
		zap.Int("messages", s.state.TotalMessages()),
	)
	return s, nil
}

// Close cancels all deferred work. Pending scheduled messages are lost.
func (s *Service) Close() {
	if n := s.scheduler.Pending(""); n > 0 {
		s.logger.Warn("dropping deferred work on close", zap.Int("pending", n))
	}
	s.scheduler.Close()
}

// Clear resets the workspace to empty and drops all deferred work.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := s.scheduler.Pending("")
	s.scheduler.Close()
	s.scheduler = scheduler.New(s.clock, s.logger)
	s.state.Reset()
	if s.notifier != nil {
		s.notifier.DisconnectAll()
	}
	s.persist(ctx)
	s.logger.Info("workspace cleared", zap.Int("dropped_tasks", dropped))
}

// persist saves the current state. A failed save is logged and otherwise
// ignored; the in-memory state stays authoritative. The save outlives a
// cancelled request since the mutation has already happened.
func (s *Service) persist(ctx context.Context) {
	if err := s.snapshots.Save(context.WithoutCancel(ctx), s.state.Snapshot()); err != nil {
		s.logger.Error("failed to save snapshot", zap.Error(err))
	}
}

func (s *Service) unixNow() int64 { return s.clock.Now().Unix() }

// authenticate resolves a session token. Every failure is Forbidden.
func (s *Service) authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Forbidden("invalid token")
	}
	if _, err := s.issuer.Parse(token); err != nil {
		return nil, apperr.Forbidden("invalid token")
	}
	u, ok := s.state.UserByToken(s.digester.Digest(token))
	if !ok {
		return nil, apperr.Forbidden("invalid token")
	}
	return u, nil
}

// canModerate reports whether u may moderate content in c. The author of
// the message qualifies only when includeAuthor is set. A global owner
// moderates any channel, never DMs; callers that act on messages check
// membership first.
func canModerate(u *models.User, c models.Container, authorID int, includeAuthor bool) bool {
	if includeAuthor && authorID == u.ID {
		return true
	}
	if c.HasOwner(u.ID) {
		return true
	}
	return c.Ref().Kind == models.KindChannel && u.IsGlobalOwner()
}

// disconnect ends live streams of uid; see Notifier.
func (s *Service) disconnect(uid int, session string) {
	if s.notifier != nil {
		s.notifier.Disconnect(uid, session)
	}
}

// notify stores n for u and pushes it to live subscribers.
func (s *Service) notify(u *models.User, n models.Notification) {
	u.Notifications = append(u.Notifications, n)
	if s.notifier != nil {
		s.notifier.Publish(u.ID, n)
	}
}

func containerNotification(c models.Container, text string) models.Notification {
	n := models.Notification{ChannelID: models.NoContainer, DMID: models.NoContainer, Message: text}
	if ref := c.Ref(); ref.Kind == models.KindChannel {
		n.ChannelID = ref.ID
	} else {
		n.DMID = ref.ID
	}
	return n
}
