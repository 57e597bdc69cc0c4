// Package discord implements the chat transport for Discord direct messages
// using the Gateway WebSocket.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/bwmarrin/discordgo"
)

// Platform tags messages received from Discord.
const Platform = "discord"

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

// Adapter implements ports.Transport for Discord. Each DM channel is one
// conversant; guild messages are ignored.
type Adapter struct {
	sess          session
	botToken      string
	botUserID     string
	logger        *slog.Logger
	mu            sync.Mutex
	sendMu        sync.RWMutex // held for reading while delivering to inbound
	connected     bool
	closed        bool
	inbound       chan domain.InboundMessage
	listenCtx     context.Context
	cancelFunc    context.CancelFunc
	removeHandler func()
	baseBackoff   time.Duration
	maxBackoff    time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string // Discord bot token
	Logger   *slog.Logger
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:    opts.BotToken,
		sess:        opts.Session,
		logger:      opts.Logger,
		inbound:     make(chan domain.InboundMessage, 100),
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	return a, nil
}

// Connect opens the Gateway connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
		a.sess = dg
	}

	// Capture the bot user ID on connect and reconnect.
	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.SetBotUserID(r.User.ID)
		a.logger.Info("Discord connected", "user", r.User.Username, "id", r.User.ID)
	})
	a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		a.logger.Warn("Discord gateway disconnected, discordgo will auto-reconnect")
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen registers the message handler. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan domain.InboundMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	a.listenCtx, a.cancelFunc = context.WithCancel(ctx)
	a.removeHandler = a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(m)
	})
	return a.inbound, nil
}

// Send posts text or a file to the conversant's DM channel.
func (a *Adapter) Send(ctx context.Context, msg domain.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	if msg.ConversantID == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	err := a.retryOnRateLimit(ctx, func() error {
		// Rebuilt per attempt: the file reader is consumed by each request.
		_, sendErr := a.sess.ChannelMessageSendComplex(msg.ConversantID, buildMessageSend(msg), discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.connected = false
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	if a.removeHandler != nil {
		a.removeHandler()
	}
	sess := a.sess
	a.mu.Unlock()

	// Wait for in-flight deliveries, which unblock on the canceled context.
	a.sendMu.Lock()
	close(a.inbound)
	a.sendMu.Unlock()

	if sess != nil {
		return sess.Close()
	}
	return nil
}

// BotUserID returns the bot's Discord user ID (available after Ready).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// SetBotUserID sets the bot user ID (used for self-message filtering).
func (a *Adapter) SetBotUserID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.botUserID = id
}

// handleMessage converts a direct message into an InboundMessage.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}

	a.sendMu.RLock()
	defer a.sendMu.RUnlock()

	a.mu.Lock()
	botID, closed, ctx := a.botUserID, a.closed, a.listenCtx
	a.mu.Unlock()
	if closed || m.Author.ID == botID {
		return
	}

	ts, _ := discordgo.SnowflakeTimestamp(m.ID)
	msg := domain.InboundMessage{
		Platform:     Platform,
		ConversantID: m.ChannelID,
		Contact:      m.Author.Username,
		Text:         m.Content,
		Timestamp:    ts,
	}
	select {
	case a.inbound <- msg:
	case <-ctx.Done():
	}
}

// buildMessageSend translates an OutboundMessage into a Discord MessageSend.
func buildMessageSend(msg domain.OutboundMessage) *discordgo.MessageSend {
	data := &discordgo.MessageSend{Content: msg.Text}
	if msg.Attachment != nil {
		data.Files = []*discordgo.File{{
			Name:        msg.Attachment.FileName,
			ContentType: "application/pdf",
			Reader:      bytes.NewReader(msg.Attachment.Data),
		}}
	}
	return data
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}
		a.logger.Warn("Discord rate limited, retrying", "attempt", attempt+1, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

var _ ports.Transport = (*Adapter)(nil)
