package chat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// QuickReply is a shortcut whose label is sent as if typed.
type QuickReply struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

var quickReplies = []QuickReply{
	{Label: "Track my order", Action: "track_order"},
	{Label: "Product recommendations", Action: "recommendations"},
	{Label: "Return policy", Action: "returns"},
	{Label: "Contact support", Action: "contact"},
}

func QuickReplies() []QuickReply {
	return append([]QuickReply(nil), quickReplies...)
}

const welcomeText = "Namaste! 🙏 Welcome to Farmisian. I'm your personal assistant. How can I help you gently today?"

// DelayFunc returns the thinking time before a reply is appended.
type DelayFunc func() time.Duration

// RandomDelay waits floor plus a uniform jitter in [0, jitter).
func RandomDelay(floor, jitter time.Duration) DelayFunc {
	return func() time.Duration {
		if jitter <= 0 {
			return floor
		}
		return floor + rand.N(jitter)
	}
}

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	Messages  []Message `json:"messages"`
	Composing bool      `json:"composing"`
}

// Session is one conversation. Replies are appended in the order the user
// turns were accepted, each after its own delay. Close cancels pending replies.
type Session struct {
	matcher *Matcher
	ids     *snowflake.Node
	delay   DelayFunc
	now     func() time.Time
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	messages  []Message
	pending   int
	last      chan struct{}
	closed    bool
	greeted   bool
	observers []func(Snapshot)
}

type SessionOption func(*Session)

func WithDelay(d DelayFunc) SessionOption {
	return func(s *Session) { s.delay = d }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession starts a conversation holding only the welcome message.
func NewSession(matcher *Matcher, ids *snowflake.Node, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		matcher: matcher,
		ids:     ids,
		delay:   RandomDelay(800*time.Millisecond, 800*time.Millisecond),
		now:     time.Now,
		logger:  zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = []Message{s.newMessage(RoleAssistant, NewContent(Text(welcomeText)))}
	return s
}

// Greet adds the personalized greeting once, for a signed-in visitor whose
// conversation has not started yet.
func (s *Session) Greet(c Context) {
	if !c.Authenticated || c.UserName == "" {
		return
	}
	s.mu.Lock()
	if s.closed || s.greeted || len(s.messages) != 1 {
		s.mu.Unlock()
		return
	}
	s.greeted = true
	s.messages = append(s.messages, s.newMessage(RoleAssistant, NewContent(Text(
		fmt.Sprintf("Hi %s! It's great to see you again. Need help with a recent order or looking for fresh produce?", c.UserName),
	))))
	s.mu.Unlock()
	s.notify()
}

// Send appends the user turn and schedules its reply. Blank input and closed
// sessions are ignored and report false.
func (s *Session) Send(text string, c Context) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	intent, reply := s.matcher.Match(text, c)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.messages = append(s.messages, s.newMessage(RoleUser, NewContent(Text(text))))
	prev := s.last
	done := make(chan struct{})
	s.last = done
	s.pending++
	s.wg.Add(1)
	wait := s.delay()
	s.mu.Unlock()

	s.logger.Debug("chat turn accepted", zap.String("intent", string(intent)), zap.Duration("delay", wait))
	s.notify()
	go s.deliver(prev, done, wait, reply)
	return true
}

// SendQuickReply sends the label of the quick reply named by action.
func (s *Session) SendQuickReply(action string, c Context) bool {
	for _, q := range quickReplies {
		if q.Action == action {
			return s.Send(q.Label, c)
		}
	}
	return false
}

func (s *Session) deliver(prev <-chan struct{}, done chan struct{}, wait time.Duration, reply Content) {
	defer s.wg.Done()
	defer close(done)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
		return
	}
	if prev != nil {
		select {
		case <-prev:
		case <-s.ctx.Done():
			return
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, s.newMessage(RoleAssistant, reply))
	s.pending--
	s.mu.Unlock()
	s.notify()
}

func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Composing reports whether a reply is still pending.
func (s *Session) Composing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Close tears the session down: pending replies are dropped and the message
// history is discarded. It blocks until reply goroutines have exited.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.messages = nil
	s.pending = 0
	s.observers = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{Messages: append([]Message(nil), s.messages...), Composing: s.pending > 0}
}

func (s *Session) newMessage(role Role, content Content) Message {
	return Message{ID: s.ids.Generate().String(), Role: role, Content: content, Timestamp: s.now()}
}
