package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"golang.org/x/term"
)

// Platform tags messages typed on the console.
const Platform = "console"

// DefaultConversantID is the identity of the local user.
const DefaultConversantID = "local"

// ContentRenderer formats bot text for display.
type ContentRenderer func(string) (string, error)

// Transport is a single-conversant chat over a reader and a writer.
// Report attachments are written to a directory.
type Transport struct {
	source io.Reader
	writer io.Writer

	conversantID string
	contact      string
	outputDir    string
	renderer     ContentRenderer
	interactive  bool
	logger       *slog.Logger

	mu sync.Mutex // serializes writes
}

// Option configures the Transport.
type Option func(*Transport)

// WithConversant sets the identity and report contact of the local user.
func WithConversant(id, contact string) Option {
	return func(t *Transport) {
		t.conversantID = id
		t.contact = contact
	}
}

// WithOutputDir sets where report attachments are written.
func WithOutputDir(dir string) Option {
	return func(t *Transport) {
		t.outputDir = dir
	}
}

// WithRenderer configures the content renderer.
func WithRenderer(r ContentRenderer) Option {
	return func(t *Transport) {
		t.renderer = r
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates a console transport. Nil streams default to Stdin/Stdout.
func New(r io.Reader, w io.Writer, opts ...Option) *Transport {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &Transport{
		source:       r,
		writer:       w,
		conversantID: DefaultConversantID,
		outputDir:    ".",
		logger:       logging.NewNop(),
		interactive:  IsTerminal(r),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether input comes from a terminal.
func (t *Transport) Interactive() bool {
	return t.interactive
}

// Connect prepares the attachment directory.
func (t *Transport) Connect(ctx context.Context) error {
	if err := os.MkdirAll(t.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Listen emits one message per input line. The channel closes on EOF or
// when ctx is done.
func (t *Transport) Listen(ctx context.Context) (<-chan domain.InboundMessage, error) {
	ch := make(chan domain.InboundMessage)
	go func() {
		defer close(ch)
		reader := bufio.NewReader(t.source)
		for {
			t.prompt()
			line, err := reader.ReadString('\n')
			if line != "" || err == nil {
				msg := domain.InboundMessage{
					Platform:     Platform,
					ConversantID: t.conversantID,
					Contact:      t.contact,
					Text:         strings.TrimRight(line, "\r\n"),
					Timestamp:    time.Now(),
				}
				select {
				case ch <- msg:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					t.logger.Error("Console read failed", "err", err)
				}
				return
			}
		}
	}()
	return ch, nil
}

func (t *Transport) prompt() {
	if !t.interactive {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.writer, "> ")
}

// Send prints text or saves an attachment and prints its path.
func (t *Transport) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Attachment != nil {
		path := filepath.Join(t.outputDir, filepath.Base(msg.Attachment.FileName))
		if err := os.WriteFile(path, msg.Attachment.Data, 0644); err != nil {
			return fmt.Errorf("failed to save attachment: %w", err)
		}
		_, err := fmt.Fprintf(t.writer, "📎 %s\n", path)
		return err
	}

	output := msg.Text
	if t.renderer != nil {
		if rendered, err := t.renderer(toMarkdown(msg.Text)); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(t.writer, strings.TrimSpace(output))
	return err
}

// Close is a no-op; the streams belong to the caller.
func (t *Transport) Close() error {
	return nil
}

// toMarkdown converts chat-style *bold* into Markdown **bold**.
func toMarkdown(s string) string {
	return strings.ReplaceAll(s, "*", "**")
}

var _ ports.Transport = (*Transport)(nil)
