package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/internal/presentation/graph"
	"github.com/aretw0/ouvidoria/internal/runtime"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Platform tags messages received through MCP.
const Platform = "mcp"

// GraphURI is the resource exposing the conversation flow diagram.
const GraphURI = "ouvidoria://graph"

// Handler processes one inbound message, replying through out.
type Handler interface {
	Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error
}

// Sessions is the administrative view of the session store.
type Sessions interface {
	Load(ctx context.Context, conversantID string) (*domain.Session, error)
	List(ctx context.Context) ([]string, error)
}

// Reply is one message the bot sent back.
type Reply struct {
	Text           string `json:"text,omitempty" jsonschema_description:"Text message"`
	AttachmentName string `json:"attachment_name,omitempty" jsonschema_description:"File name of an attached report"`
	AttachmentSize int    `json:"attachment_size,omitempty" jsonschema_description:"Size of the attached report in bytes"`
}

// SendMessageResponse is the structured result of send_message.
type SendMessageResponse struct {
	ConversantID string  `json:"conversant_id" jsonschema_description:"The conversant the message was sent as"`
	Replies      []Reply `json:"replies" jsonschema_description:"Messages the bot sent back, in order"`
}

// ListSessionsResponse is the structured result of list_sessions.
type ListSessionsResponse struct {
	Sessions []string `json:"sessions" jsonschema_description:"Conversants with a conversation in progress"`
}

// Server exposes the bot as an MCP server so an agent can play the conversant.
type Server struct {
	bot       Handler
	sessions  Sessions
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(bot Handler, sessions Sessions, version string, opts ...Option) *Server {
	s := &Server{
		bot:       bot,
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ouvidoria-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a chat message to the complaint bot as the given conversant and return its replies."),
		mcp.WithString("conversant_id", mcp.Required(), mcp.Description("Identity of the simulated conversant")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("contact", mcp.Description("Contact printed on the report (defaults to conversant_id)")),
		mcp.WithOutputSchema[SendMessageResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List conversants with a complaint in progress."),
		mcp.WithOutputSchema[ListSessionsResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListSessions))

	s.mcpServer.AddTool(mcp.NewTool("inspect_session",
		mcp.WithDescription("Show the state and partial record of a conversant's session."),
		mcp.WithString("conversant_id", mcp.Required(), mcp.Description("Conversant to inspect")),
	), s.handleInspectSession)
}

// collector buffers replies for the tool result.
type collector struct {
	replies []Reply
}

func (c *collector) Send(_ context.Context, msg domain.OutboundMessage) error {
	r := Reply{Text: msg.Text}
	if msg.Attachment != nil {
		r.AttachmentName = msg.Attachment.FileName
		r.AttachmentSize = len(msg.Attachment.Data)
	}
	c.replies = append(c.replies, r)
	return nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SendMessageResponse, error) {
	conversantID, _ := args["conversant_id"].(string)
	text, _ := args["text"].(string)
	contact, _ := args["contact"].(string)
	if conversantID == "" {
		return SendMessageResponse{}, errors.New("conversant_id is required")
	}

	out := &collector{}
	err := s.bot.Handle(ctx, domain.InboundMessage{
		Platform:     Platform,
		ConversantID: conversantID,
		Contact:      contact,
		Text:         text,
		Timestamp:    time.Now(),
	}, out)
	if err != nil {
		s.logger.Error("MCP send_message failed", "conversant_id", conversantID, "err", err)
		return SendMessageResponse{}, fmt.Errorf("send failed: %w", err)
	}

	if out.replies == nil {
		out.replies = []Reply{}
	}
	return SendMessageResponse{ConversantID: conversantID, Replies: out.replies}, nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListSessionsResponse, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return ListSessionsResponse{}, fmt.Errorf("list failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ListSessionsResponse{Sessions: ids}, nil
}

func (s *Server) handleInspectSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversantID, err := request.RequireString("conversant_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := s.sessions.Load(ctx, conversantID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no session for %s", conversantID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(sess)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation Flow",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(runtime.Edges()),
			},
		}, nil
	})
}
