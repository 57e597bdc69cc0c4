package console_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/ouvidoria/pkg/adapters/console"
	"github.com/aretw0/ouvidoria/pkg/adapters/memory"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/runner"
	"github.com/aretw0/ouvidoria/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListen_EmitsLines(t *testing.T) {
	tr := console.New(strings.NewReader("hello\r\n\nlast"), &bytes.Buffer{}, console.WithConversant("me", "+55"))
	assert.False(t, tr.Interactive())

	ch, err := tr.Listen(context.Background())
	require.NoError(t, err)

	var got []domain.InboundMessage
	for msg := range ch {
		got = append(got, msg)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, "", got[1].Text)
	assert.Equal(t, "last", got[2].Text)
	assert.Equal(t, "me", got[0].ConversantID)
	assert.Equal(t, "+55", got[0].Contact)
	assert.Equal(t, console.Platform, got[0].Platform)
}

func TestListen_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := console.New(strings.NewReader("a\nb\nc\n"), &bytes.Buffer{})

	ch, err := tr.Listen(ctx)
	require.NoError(t, err)
	<-ch
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestSend_TextAndAttachment(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	tr := console.New(strings.NewReader(""), &out, console.WithOutputDir(dir))
	require.NoError(t, tr.Connect(context.Background()))

	ctx := context.Background()
	require.NoError(t, tr.Send(ctx, domain.OutboundMessage{Text: "What is your *name*?"}))
	require.NoError(t, tr.Send(ctx, domain.OutboundMessage{
		Attachment: &domain.Attachment{FileName: "../Denuncia_x.pdf", Data: []byte("%PDF-")},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "Denuncia_x.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-"), data)
	assert.Contains(t, out.String(), "What is your *name*?")
	assert.Contains(t, out.String(), "Denuncia_x.pdf")
}

func TestSend_Renderer(t *testing.T) {
	var out bytes.Buffer
	var seen string
	tr := console.New(strings.NewReader(""), &out, console.WithRenderer(func(s string) (string, error) {
		seen = s
		return "RENDERED", nil
	}))

	require.NoError(t, tr.Send(context.Background(), domain.OutboundMessage{Text: "your *name*"}))
	assert.Equal(t, "your **name**", seen)
	assert.Equal(t, "RENDERED\n", out.String())
}

func TestConsole_FullConversation(t *testing.T) {
	dir := t.TempDir()
	input := strings.Join([]string{"hi", "Alice", "Downtown", "2", "Main St", "Pothole", "", "1"}, "\n") + "\n"
	var out bytes.Buffer
	tr := console.New(strings.NewReader(input), &out, console.WithOutputDir(dir))

	mgr := session.NewManager(memory.NewStore())
	d := runner.NewDispatcher(runner.NewBot(mgr))
	require.NoError(t, d.Run(context.Background(), tr))

	matches, err := filepath.Glob(filepath.Join(dir, "Denuncia_*.pdf"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Contains(t, out.String(), "registered")

	ids, err := mgr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
