// Package mcp exposes sahayak to agent clients over the Model Context Protocol.
//
// The server is stateless and speaks streamable HTTP. Two tools are offered:
// legal_aid_chat runs a typed question through the dispatcher, and
// find_aid_centers looks up legal-aid centers by city.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/dispatch"
	"github.com/nadzzz/sahayak/internal/message"
	"github.com/nadzzz/sahayak/internal/transport"
)

// ChatInput is the argument object of the legal_aid_chat tool.
type ChatInput struct {
	Question string `json:"question" jsonschema:"the user's question, in any supported language"`
	Language string `json:"language,omitempty" jsonschema:"ISO-639-1 code of the question and answer language, default en"`
	Mode     string `json:"mode,omitempty" jsonschema:"'Legal Aid (RAG)' to answer only from the legal corpus, otherwise 'General Chat'"`
}

// AidCentersInput is the argument object of the find_aid_centers tool.
type AidCentersInput struct {
	City string `json:"city" jsonschema:"city to search, matched case-insensitively"`
}

// Transport implements transport.Transport over MCP streamable HTTP.
type Transport struct {
	port    int
	centers transport.AidCenterFinder
	version string
	server  *http.Server
}

// New creates a new MCP transport.
func New(cfg config.MCPConfig, centers transport.AidCenterFinder, version string) *Transport {
	return &Transport{port: cfg.Port, centers: centers, version: version}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mcp" }

// NewServer builds the MCP server with both tools registered.
func (t *Transport) NewServer(handler transport.Handler) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sahayak", Version: t.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "legal_aid_chat",
		Description: "Answer a question about Indian law or chat with the Sahayak assistant. Replies in the question's language.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ChatInput) (*mcp.CallToolResult, any, error) {
		return t.chat(ctx, handler, in), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_aid_centers",
		Description: "List legal-aid centers (name, address, phone) in an Indian city.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in AidCentersInput) (*mcp.CallToolResult, any, error) {
		return t.findAidCenters(in), nil, nil
	})

	return server
}

// Listen starts the MCP HTTP endpoint. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	server := t.NewServer(handler)
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)

	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("mcp transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("mcp transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("mcp listen: %w", err)
	}
	return nil
}

func (t *Transport) chat(ctx context.Context, handler transport.Handler, in ChatInput) *mcp.CallToolResult {
	req := message.NewChatRequest("mcp", in.Question, in.Language, in.Mode)

	resp, err := handler(ctx, req)
	if err != nil {
		if errors.Is(err, dispatch.ErrInvalidInput) {
			return toolError("No query provided.")
		}
		slog.Error("mcp chat failed", "request_id", req.ID, "error", err)
		return toolError(err.Error())
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: resp.TextAnswer}},
	}
	if len(resp.AudioAnswer) > 0 {
		result.Content = append(result.Content, &mcp.AudioContent{
			Data:     resp.AudioAnswer,
			MIMEType: resp.AudioContentType,
		})
	}
	return result
}

func (t *Transport) findAidCenters(in AidCentersInput) *mcp.CallToolResult {
	city := strings.TrimSpace(in.City)
	if city == "" {
		return toolError("city is required")
	}

	var found []message.AidCenter
	if t.centers != nil {
		found = t.centers.Find(city)
	}
	if len(found) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("No legal aid centers found for %s.", city)}},
		}
	}

	var b strings.Builder
	for i, c := range found {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s, %s, %s. Phone: %s", c.Name, c.Address, c.City, c.Phone)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: b.String()}},
	}
}

// Close gracefully shuts down the MCP HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
