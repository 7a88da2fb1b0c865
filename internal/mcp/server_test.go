package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

func statusSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Properties = openapi3.Schemas{
		"status": openapi3.NewStringSchema().NewRef(),
	}
	schema.Required = []string{"status"}
	return schema
}

func newTestServer(t *testing.T) (*Server, *int) {
	t.Helper()

	calls := 0
	registry := NewRegistry()

	err := registry.RegisterTool(Tool{
		Name:          "list_inquiries",
		Description:   "List inquiries filtered by status.",
		InputSchema:   statusSchema(),
		RequiredScope: "mcp:inquiries",
		Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
			calls++
			return `{"inquiries":[]}`, nil
		},
	})
	if err != nil {
		t.Fatalf("register list_inquiries: %v", err)
	}

	err = registry.RegisterTool(Tool{
		Name:        "get_pricing",
		Description: "Return the active pricing catalog.",
		InputSchema: openapi3.NewObjectSchema(),
		Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
			return `{"pricing":[]}`, nil
		},
	})
	if err != nil {
		t.Fatalf("register get_pricing: %v", err)
	}

	err = registry.RegisterTool(Tool{
		Name:        "broken_tool",
		Description: "Always fails.",
		InputSchema: openapi3.NewObjectSchema(),
		Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
			return "", errors.New("backend down")
		},
	})
	if err != nil {
		t.Fatalf("register broken_tool: %v", err)
	}

	err = registry.RegisterResource(Resource{
		URITemplate:   "vyoniq://blog/posts/{slug}",
		Name:          "blog-post",
		Description:   "One published blog post.",
		MimeType:      "application/json",
		RequiredScope: "mcp:blog",
		Handler: func(ctx context.Context, caller *Caller, uri string) (string, error) {
			return `{"uri":"` + uri + `"}`, nil
		},
	})
	if err != nil {
		t.Fatalf("register resource: %v", err)
	}

	return NewServer(registry, zap.NewNop(), "vyoniq-backoffice", "test"), &calls
}

func adminCaller() *Caller {
	return &Caller{Authenticated: true, IsAdmin: true, Subject: "admin"}
}

func handle(t *testing.T, srv *Server, caller *Caller, body string) Response {
	t.Helper()
	return srv.Handle(context.Background(), caller, []byte(body))
}

func TestUnauthenticatedCallerGetsJSONRPCError(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, caller := range []*Caller{nil, {}} {
		resp := handle(t, srv, caller, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		if resp.Error == nil || resp.Error.Code != CodeUnauthorized {
			t.Fatalf("response = %+v, want code %d", resp, CodeUnauthorized)
		}
		if string(resp.ID) != "1" {
			t.Fatalf("id = %s, want request id echoed", resp.ID)
		}
	}
}

func TestMalformedEnvelopes(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := handle(t, srv, adminCaller(), `{not json`)
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Fatalf("parse error: got %+v", resp)
	}

	resp = handle(t, srv, adminCaller(), `{"jsonrpc":"1.0","id":2,"method":"tools/list"}`)
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Fatalf("wrong version: got %+v", resp)
	}

	resp = handle(t, srv, adminCaller(), `{"jsonrpc":"2.0","id":3,"method":"no/such"}`)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("unknown method: got %+v", resp)
	}
}

func TestInitialize(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := handle(t, srv, adminCaller(), `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if result["protocolVersion"] != protocolVersion {
		t.Fatalf("protocolVersion = %v", result["protocolVersion"])
	}
}

func TestToolsListIsSorted(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := handle(t, srv, adminCaller(), `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if resp.Error != nil {
		t.Fatalf("tools/list failed: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var payload struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(payload.Tools) != 3 {
		t.Fatalf("tools = %d, want 3", len(payload.Tools))
	}
	for i := 1; i < len(payload.Tools); i++ {
		if strings.Compare(payload.Tools[i-1].Name, payload.Tools[i].Name) > 0 {
			t.Fatalf("tool list not sorted: %s before %s", payload.Tools[i-1].Name, payload.Tools[i].Name)
		}
	}
}

func TestToolCallSchemaMismatchNeverReachesHandler(t *testing.T) {
	srv, calls := newTestServer(t)

	body := `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"list_inquiries","arguments":{"wrong":"field"}}}`
	resp := handle(t, srv, adminCaller(), body)
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("response = %+v, want code %d", resp, CodeInvalidParams)
	}
	if *calls != 0 {
		t.Fatalf("handler invoked %d times on invalid params", *calls)
	}
}

func TestToolCallScopeEnforcement(t *testing.T) {
	srv, calls := newTestServer(t)
	body := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"list_inquiries","arguments":{"status":"PENDING"}}}`

	noScope := &Caller{Authenticated: true, Subject: "key_1", Scopes: []string{"mcp:blog"}}
	resp := handle(t, srv, noScope, body)
	if resp.Error == nil || resp.Error.Code != CodeUnauthorized {
		t.Fatalf("response = %+v, want code %d", resp, CodeUnauthorized)
	}
	data, ok := resp.Error.Data.(map[string]any)
	if !ok || data["requiredScope"] != "mcp:inquiries" {
		t.Fatalf("error data = %v, want requiredScope", resp.Error.Data)
	}
	if *calls != 0 {
		t.Fatalf("handler invoked without scope")
	}

	for _, caller := range []*Caller{
		{Authenticated: true, Subject: "key_2", Scopes: []string{"mcp:inquiries"}},
		{Authenticated: true, Subject: "key_3", Scopes: []string{"mcp:full"}},
		adminCaller(),
	} {
		resp = handle(t, srv, caller, body)
		if resp.Error != nil {
			t.Fatalf("caller %s rejected: %+v", caller.Subject, resp.Error)
		}
	}
	if *calls != 3 {
		t.Fatalf("handler calls = %d, want 3", *calls)
	}
}

func TestToolCallUnscopedToolAllowsAnyAuthenticatedCaller(t *testing.T) {
	srv, _ := newTestServer(t)

	caller := &Caller{Authenticated: true, Subject: "user_7"}
	body := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"get_pricing","arguments":{}}}`
	resp := handle(t, srv, caller, body)
	if resp.Error != nil {
		t.Fatalf("unscoped tool rejected: %+v", resp.Error)
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var result ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("content = %+v", result.Content)
	}
}

func TestToolHandlerErrorIsInternalError(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"broken_tool","arguments":{}}}`
	resp := handle(t, srv, adminCaller(), body)
	if resp.Error == nil || resp.Error.Code != CodeInternalError {
		t.Fatalf("response = %+v, want code %d", resp, CodeInternalError)
	}
}

func TestUnknownToolIsMethodNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"drop_tables","arguments":{}}}`
	resp := handle(t, srv, adminCaller(), body)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("response = %+v, want code %d", resp, CodeMethodNotFound)
	}
}

func TestResourceReadMatchesTemplate(t *testing.T) {
	srv, _ := newTestServer(t)
	caller := &Caller{Authenticated: true, Subject: "key_9", Scopes: []string{"mcp:blog"}}

	body := `{"jsonrpc":"2.0","id":8,"method":"resources/read","params":{"uri":"vyoniq://blog/posts/launch-week"}}`
	resp := handle(t, srv, caller, body)
	if resp.Error != nil {
		t.Fatalf("resources/read failed: %+v", resp.Error)
	}
	result, ok := resp.Result.(ReadResourceResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(result.Contents))
	}
	if result.Contents[0].URI != "vyoniq://blog/posts/launch-week" {
		t.Fatalf("uri = %s", result.Contents[0].URI)
	}
	if result.Contents[0].MimeType != "application/json" {
		t.Fatalf("mimeType = %s", result.Contents[0].MimeType)
	}

	body = `{"jsonrpc":"2.0","id":9,"method":"resources/read","params":{"uri":"vyoniq://nope"}}`
	resp = handle(t, srv, caller, body)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("unknown resource: got %+v", resp)
	}

	// Template with a placeholder does not match its bare prefix.
	body = `{"jsonrpc":"2.0","id":10,"method":"resources/read","params":{"uri":"vyoniq://blog/posts/"}}`
	resp = handle(t, srv, caller, body)
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("empty slug: got %+v", resp)
	}
}

func TestRegistryRejectsMisconfiguredTools(t *testing.T) {
	registry := NewRegistry()

	if err := registry.RegisterTool(Tool{Name: "no_schema", Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
		return "", nil
	}}); err == nil {
		t.Fatalf("expected error for missing schema")
	}

	tool := Tool{
		Name:        "dup",
		InputSchema: openapi3.NewObjectSchema(),
		Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
			return "", nil
		},
	}
	if err := registry.RegisterTool(tool); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := registry.RegisterTool(tool); err == nil {
		t.Fatalf("expected duplicate name error")
	}

	registry.Freeze()
	tool.Name = "late"
	if err := registry.RegisterTool(tool); err == nil {
		t.Fatalf("expected frozen registry error")
	}
}
