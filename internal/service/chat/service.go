package chat

import (
	"context"
	"sync"
	"time"

	"farmisian/internal/cart"
	"farmisian/internal/chat"
	"farmisian/internal/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type cartSource interface {
	Engine(ctx context.Context, sessionID string) *cart.Engine
}

type entry struct {
	session  *chat.Session
	lastSeen time.Time
}

// Service keeps one chat session per storefront session.
type Service struct {
	matcher *chat.Matcher
	ids     *snowflake.Node
	carts   cartSource
	delay   chat.DelayFunc
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func New(matcher *chat.Matcher, ids *snowflake.Node, carts cartSource, delay chat.DelayFunc, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		matcher:  matcher,
		ids:      ids,
		carts:    carts,
		delay:    delay,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// ContextFor snapshots what the matcher may know about the visitor.
func (s *Service) ContextFor(ctx context.Context, sessionID string, user *domain.Customer) chat.Context {
	state := s.carts.Engine(ctx, sessionID).Snapshot()
	c := chat.Context{TotalItems: state.TotalItems(), TotalPrice: state.TotalPrice()}
	if user != nil {
		c.Authenticated = true
		c.UserName = user.Name
	}
	return c
}

func (s *Service) session(sessionID string) *chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID]; ok {
		e.lastSeen = s.now()
		return e.session
	}
	opts := []chat.SessionOption{chat.WithLogger(s.logger.With(zap.String("session_id", sessionID)))}
	if s.delay != nil {
		opts = append(opts, chat.WithDelay(s.delay))
	}
	sess := chat.NewSession(s.matcher, s.ids, opts...)
	s.sessions[sessionID] = &entry{session: sess, lastSeen: s.now()}
	return sess
}

// Open returns the conversation, greeting a signed-in visitor on first view.
func (s *Service) Open(ctx context.Context, sessionID string, user *domain.Customer) chat.Snapshot {
	sess := s.session(sessionID)
	sess.Greet(s.ContextFor(ctx, sessionID, user))
	return sess.Snapshot()
}

// Send submits text; accepted reports whether a reply was scheduled.
func (s *Service) Send(ctx context.Context, sessionID, text string, user *domain.Customer) (snap chat.Snapshot, accepted bool) {
	sess := s.session(sessionID)
	accepted = sess.Send(text, s.ContextFor(ctx, sessionID, user))
	return sess.Snapshot(), accepted
}

func (s *Service) QuickReply(ctx context.Context, sessionID, action string, user *domain.Customer) (snap chat.Snapshot, accepted bool) {
	sess := s.session(sessionID)
	accepted = sess.SendQuickReply(action, s.ContextFor(ctx, sessionID, user))
	return sess.Snapshot(), accepted
}

// Reset closes the conversation, dropping any pending replies.
func (s *Service) Reset(sessionID string) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		e.session.Close()
	}
}

// EvictIdle closes sessions untouched since before cutoff.
func (s *Service) EvictIdle(cutoff time.Time) int {
	return s.closeWhere(func(e *entry) bool { return e.lastSeen.Before(cutoff) })
}

// CloseAll tears every session down.
func (s *Service) CloseAll() {
	n := s.closeWhere(func(*entry) bool { return true })
	s.logger.Debug("chat sessions closed", zap.Int("count", n))
}

func (s *Service) closeWhere(match func(*entry) bool) int {
	s.mu.Lock()
	var doomed []*chat.Session
	for id, e := range s.sessions {
		if match(e) {
			doomed = append(doomed, e.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, sess := range doomed {
		sess.Close()
	}
	return len(doomed)
}
