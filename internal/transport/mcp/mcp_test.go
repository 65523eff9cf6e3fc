package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/dispatch"
	"github.com/nadzzz/sahayak/internal/message"
	"github.com/nadzzz/sahayak/internal/transport"
)

type fakeFinder map[string][]message.AidCenter

func (f fakeFinder) Find(city string) []message.AidCenter {
	return f[strings.ToLower(city)]
}

func connect(t *testing.T, handler transport.Handler) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	tr := New(config.MCPConfig{}, fakeFinder{
		"pune": {{City: "Pune", Name: "DLSA Pune", Address: "Shivajinagar", Phone: "020-1"}},
	}, "test")
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := tr.NewServer(handler).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, tool string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", tool, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("call %s returned no content", tool)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("first content is %T, want text", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestLegalAidChat(t *testing.T) {
	var got *message.ChatRequest
	session := connect(t, func(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error) {
		got = req
		return &message.ChatResponse{TextAnswer: "Bail is provisional release."}, nil
	})

	text, isErr := callText(t, session, "legal_aid_chat", map[string]any{
		"question": "What is bail?",
		"mode":     "Legal Aid (RAG)",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if text != "Bail is provisional release." {
		t.Errorf("answer = %q", text)
	}
	if got.Source != "mcp" || got.Language != "en" || got.Mode != message.ModeLegalAid {
		t.Errorf("request not mapped: %+v", got)
	}
}

func TestLegalAidChat_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", dispatch.ErrInvalidInput, "No query provided."},
		{"generation", &dispatch.GenerationError{Err: errors.New("llm down")}, "llm down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := connect(t, func(context.Context, *message.ChatRequest) (*message.ChatResponse, error) {
				return nil, tt.err
			})
			text, isErr := callText(t, session, "legal_aid_chat", map[string]any{"question": "q"})
			if !isErr {
				t.Error("expected a tool error")
			}
			if text != tt.want {
				t.Errorf("error text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestFindAidCenters(t *testing.T) {
	session := connect(t, nil)

	text, isErr := callText(t, session, "find_aid_centers", map[string]any{"city": "Pune"})
	if isErr || !strings.Contains(text, "DLSA Pune") || !strings.Contains(text, "020-1") {
		t.Errorf("unexpected result %q (error=%v)", text, isErr)
	}

	text, isErr = callText(t, session, "find_aid_centers", map[string]any{"city": "Nowhere"})
	if isErr || text != "No legal aid centers found for Nowhere." {
		t.Errorf("unexpected result %q (error=%v)", text, isErr)
	}
}

func TestListTools(t *testing.T) {
	session := connect(t, nil)

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	if !names["legal_aid_chat"] || !names["find_aid_centers"] {
		t.Errorf("missing tools: %v", names)
	}
}
