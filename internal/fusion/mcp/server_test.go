package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rsned/fusion-planner/internal/fusion/db"
	"github.com/rsned/fusion-planner/internal/fusion/engine"
	"github.com/rsned/fusion-planner/internal/fusion/planner"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenAndInit(ctx, filepath.Join(t.TempDir(), "fusion.db"))
	if err != nil {
		t.Fatalf("OpenAndInit: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.NewCommodityStore(database).BulkInsertCommodities(ctx, []fusion.Commodity{
		{ID: "ore", Name: "Ore", FuseAmount: 2, Rate: 4},
		{ID: "wood", Name: "Wood", FuseAmount: 1, Rate: 2},
		{ID: "plank", Name: "Plank", FuseAmount: 1},
		{ID: "tool", Name: "Tool", FuseAmount: 1},
	}); err != nil {
		t.Fatalf("BulkInsertCommodities: %v", err)
	}
	if err := db.NewRecipeStore(database).BulkInsertRecipes(ctx, []fusion.Recipe{
		{Output: "plank", Inputs: [2]string{"wood", "wood"}, OutputQuantity: 1},
		{Output: "tool", Inputs: [2]string{"plank", "ore"}, OutputQuantity: 1},
	}); err != nil {
		t.Fatalf("BulkInsertRecipes: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(database, engine.Options{Planner: planner.Config{}, CacheSize: 4, Logger: logger})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return NewServer(eng, logger)
}

// exchange sends each line to the server and decodes every response.
func exchange(t *testing.T, s *Server, lines ...string) []Response {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

// toolResult re-decodes a generic result into a ToolCallResult.
func toolResult(t *testing.T, resp Response) ToolCallResult {
	t.Helper()
	data, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var res ToolCallResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("unmarshal tool result: %v", err)
	}
	return res
}

func TestInitializeAndList(t *testing.T) {
	s := newTestServer(t)
	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2 (notification gets none)", len(responses))
	}

	initRes, _ := responses[0].Result.(map[string]any)
	if initRes["protocolVersion"] != "2024-11-05" {
		t.Errorf("initialize = %+v", initRes)
	}

	list, _ := responses[1].Result.(map[string]any)
	tools, _ := list["tools"].([]any)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	if got := strings.Join(names, ","); got != "fusion_plan,cost_table,commodity_lookup,find_cycles" {
		t.Errorf("tools = %s", got)
	}
}

func TestToolsCallFusionPlan(t *testing.T) {
	s := newTestServer(t)
	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"fusion_plan","arguments":{"target":"tool","quantity":3}}}`,
	)
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("responses = %+v", responses)
	}

	res := toolResult(t, responses[0])
	if res.IsError || len(res.Content) != 2 {
		t.Fatalf("result = %+v", res)
	}

	var plan map[string]any
	if err := json.Unmarshal([]byte(res.Content[0].Text), &plan); err != nil {
		t.Fatalf("plan JSON: %v", err)
	}
	if plan["plan_id"] == "" || plan["reachable"] != true {
		t.Errorf("plan = %+v", plan)
	}
	inner, _ := plan["plan"].(map[string]any)
	if inner["total_time"] != 4.5 {
		t.Errorf("total_time = %v, want 4.5", inner["total_time"])
	}
	if !strings.Contains(res.Content[1].Text, "Shopping list:") {
		t.Errorf("summary block = %q", res.Content[1].Text)
	}
}

func TestToolsCallOtherTools(t *testing.T) {
	s := newTestServer(t)
	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"cost_table","arguments":{"limit":2}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"commodity_lookup","arguments":{"id":"plank"}}}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"find_cycles"}}`,
	)
	if len(responses) != 3 {
		t.Fatalf("got %d responses", len(responses))
	}
	for _, resp := range responses {
		if resp.Error != nil {
			t.Fatalf("id %v: error %+v", resp.ID, resp.Error)
		}
	}

	var table fusion.CostTableResponse
	if err := json.Unmarshal([]byte(toolResult(t, responses[0]).Content[0].Text), &table); err != nil {
		t.Fatalf("cost table JSON: %v", err)
	}
	if len(table.Entries) != 2 || table.Entries[0].ID != "ore" {
		t.Errorf("entries = %+v", table.Entries)
	}

	var lookup fusion.CommodityLookupResponse
	if err := json.Unmarshal([]byte(toolResult(t, responses[1]).Content[0].Text), &lookup); err != nil {
		t.Fatalf("lookup JSON: %v", err)
	}
	if lookup.Commodity.ID != "plank" || len(lookup.UsedIn) != 1 {
		t.Errorf("lookup = %+v", lookup)
	}

	if text := toolResult(t, responses[2]).Content[0].Text; !strings.Contains(text, `"cycles": []`) {
		t.Errorf("find_cycles = %s", text)
	}
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	responses := exchange(t, s,
		`not json`,
		`{"jsonrpc":"2.0","id":7,"method":"bogus"}`,
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"commodity_lookup","arguments":{"id":"ghost"}}}`,
		`{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"fusion_plan","arguments":{}}}`,
	)
	if len(responses) != 5 {
		t.Fatalf("got %d responses, want 5", len(responses))
	}

	wantCodes := []int{ErrCodeParse, ErrCodeMethodNotFound, ErrCodeInvalidParams}
	for i, want := range wantCodes {
		if responses[i].Error == nil || responses[i].Error.Code != want {
			t.Errorf("response %d error = %+v, want code %d", i, responses[i].Error, want)
		}
	}

	res := toolResult(t, responses[3])
	if !res.IsError || !strings.Contains(res.Content[0].Text, "ghost") {
		t.Errorf("unknown commodity result = %+v", res)
	}

	if responses[4].Error == nil || responses[4].Error.Code != ErrCodeInvalidParams {
		t.Errorf("missing target error = %+v", responses[4].Error)
	}
}

func TestNegativeLevelsRejected(t *testing.T) {
	s := newTestServer(t)
	responses := exchange(t, s,
		`{"jsonrpc":"2.0","id":11,"method":"tools/call","params":{"name":"fusion_plan","arguments":{"target":"tool","levels":{"tertiary":-100}}}}`,
		`{"jsonrpc":"2.0","id":12,"method":"tools/call","params":{"name":"cost_table","arguments":{"levels":{"primary":-1}}}}`,
		`{"jsonrpc":"2.0","id":13,"method":"tools/call","params":{"name":"find_cycles","arguments":{"levels":{"secondary":-5}}}}`,
	)
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	for i, resp := range responses {
		if resp.Error == nil || resp.Error.Code != ErrCodeInvalidParams {
			t.Errorf("response %d error = %+v, want code %d", i, resp.Error, ErrCodeInvalidParams)
		}
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), io.Discard)
	if err != context.Canceled {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
}
