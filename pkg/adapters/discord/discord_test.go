package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Discord session ---

type sentMessage struct {
	channelID string
	content   string
	files     map[string][]byte
}

type mockSession struct {
	mu          sync.Mutex
	openErr     error
	closeCalled bool
	sent        []sentMessage
	sendErrs    []error // consumed in order, then success
	handlers    []interface{}
	removed     int
}

func newMockSession() *mockSession {
	return &mockSession{}
}

func (m *mockSession) Open() error {
	return m.openErr
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		return nil, err
	}
	files := make(map[string][]byte)
	for _, f := range data.Files {
		b, _ := io.ReadAll(f.Reader)
		files[f.Name] = b
	}
	m.sent = append(m.sent, sentMessage{channelID: channelID, content: data.Content, files: files})
	return &discordgo.Message{ID: "msg-1"}, nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removed++
	}
}

// emit invokes every registered handler accepting the event type.
func (m *mockSession) emit(event interface{}) {
	m.mu.Lock()
	handlers := append([]interface{}(nil), m.handlers...)
	m.mu.Unlock()

	for _, h := range handlers {
		switch fn := h.(type) {
		case func(*discordgo.Session, *discordgo.MessageCreate):
			if ev, ok := event.(*discordgo.MessageCreate); ok {
				fn(nil, ev)
			}
		case func(*discordgo.Session, *discordgo.Ready):
			if ev, ok := event.(*discordgo.Ready); ok {
				fn(nil, ev)
			}
		}
	}
}

func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := newMockSession()
	a, err := New(AdapterOpts{Session: sess})
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background()))
	sess.emit(&discordgo.Ready{User: &discordgo.User{ID: "BOT", Username: "ouvidoria"}})
	return a, sess
}

func dm(author *discordgo.User, channel, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "1180000000000000000",
		ChannelID: channel,
		Author:    author,
		Content:   content,
	}}
}

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	assert.ErrorContains(t, err, "bot token")

	a, err := New(AdapterOpts{BotToken: "token"})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestConnect(t *testing.T) {
	a, _ := newTestAdapter(t)
	assert.Equal(t, "BOT", a.BotUserID())

	sess := newMockSession()
	sess.openErr = errors.New("gateway down")
	b, _ := New(AdapterOpts{Session: sess})
	assert.ErrorContains(t, b.Connect(context.Background()), "open gateway")
}

func TestListen_DirectMessages(t *testing.T) {
	a, sess := newTestAdapter(t)
	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	user := &discordgo.User{ID: "U1", Username: "alice"}
	sess.emit(dm(&discordgo.User{ID: "BOT"}, "DM1", "self"))
	sess.emit(dm(&discordgo.User{ID: "B2", Bot: true}, "DM1", "other bot"))
	guild := dm(user, "C1", "guild")
	guild.GuildID = "G1"
	sess.emit(guild)
	sess.emit(dm(user, "DM1", "hello"))

	select {
	case msg := <-ch:
		assert.Equal(t, Platform, msg.Platform)
		assert.Equal(t, "DM1", msg.ConversantID)
		assert.Equal(t, "alice", msg.Contact)
		assert.Equal(t, "hello", msg.Text)
		assert.False(t, msg.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	assert.Empty(t, ch, "filtered messages are not delivered")
}

func TestListen_RequiresConnect(t *testing.T) {
	a, _ := New(AdapterOpts{Session: newMockSession()})
	_, err := a.Listen(context.Background())
	assert.ErrorContains(t, err, "not connected")
}

func TestSend_TextAndFile(t *testing.T) {
	a, sess := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.Send(ctx, domain.OutboundMessage{ConversantID: "DM1", Text: "hi"}))
	require.NoError(t, a.Send(ctx, domain.OutboundMessage{
		ConversantID: "DM1",
		Attachment:   &domain.Attachment{FileName: "Denuncia_x.pdf", Data: []byte("%PDF-")},
	}))

	require.Len(t, sess.sent, 2)
	assert.Equal(t, "hi", sess.sent[0].content)
	assert.Empty(t, sess.sent[0].files)
	assert.Equal(t, []byte("%PDF-"), sess.sent[1].files["Denuncia_x.pdf"])
}

func TestSend_RateLimitRetriesWithFreshReader(t *testing.T) {
	a, sess := newTestAdapter(t)
	a.baseBackoff = time.Millisecond
	sess.sendErrs = []error{&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}}

	err := a.Send(context.Background(), domain.OutboundMessage{
		ConversantID: "DM1",
		Attachment:   &domain.Attachment{FileName: "r.pdf", Data: []byte("data")},
	})
	require.NoError(t, err)
	require.Len(t, sess.sent, 1)
	assert.Equal(t, []byte("data"), sess.sent[0].files["r.pdf"])
}

func TestSend_Errors(t *testing.T) {
	a, sess := newTestAdapter(t)
	ctx := context.Background()

	assert.ErrorContains(t, a.Send(ctx, domain.OutboundMessage{Text: "x"}), "no channel")

	sess.sendErrs = []error{errors.New("missing access")}
	assert.ErrorContains(t, a.Send(ctx, domain.OutboundMessage{ConversantID: "DM1", Text: "x"}), "send message")

	b, _ := New(AdapterOpts{Session: newMockSession()})
	assert.ErrorContains(t, b.Send(ctx, domain.OutboundMessage{ConversantID: "DM1"}), "not connected")
}

func TestClose(t *testing.T) {
	a, sess := newTestAdapter(t)
	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, sess.closeCalled)
	assert.Equal(t, 1, sess.removed)

	// Events after close are dropped, not sent on the closed channel.
	sess.emit(dm(&discordgo.User{ID: "U1"}, "DM1", "late"))
}
