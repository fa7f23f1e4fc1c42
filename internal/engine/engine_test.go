package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/decisionos/internal/advice"
	"github.com/lazypower/decisionos/internal/decision"
	"github.com/lazypower/decisionos/internal/llm"
	"github.com/lazypower/decisionos/internal/logging"
	"github.com/lazypower/decisionos/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEngine(t *testing.T, client llm.Client) *Engine {
	t.Helper()
	return New(testDB(t), client, logging.Nop(), time.Second)
}

func seed(t *testing.T, db *store.DB, accountID string, ds ...decision.Decision) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, d := range ds {
		if d.CreatedAt.IsZero() {
			d.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		}
		if _, err := db.InsertDecision(context.Background(), accountID, d); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func measurementFields() map[string]string {
	fields := map[string]string{}
	for _, f := range advice.Measurement.Required() {
		fields[f.Key] = "real answer"
	}
	return fields
}

func TestAdviseMissingFieldsSkipsModel(t *testing.T) {
	mock := llm.NewMock("unused")
	e := testEngine(t, mock)

	fields := measurementFields()
	delete(fields, "dataSources")
	fields["primaryOutcomes"] = " "

	_, err := e.Advise(context.Background(), advice.Measurement, fields)
	var mf *advice.MissingFieldsError
	if !errors.As(err, &mf) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if msg := mf.Message(); !strings.Contains(msg, "Primary outcomes") || !strings.Contains(msg, "Data sources") {
		t.Errorf("Message = %q, want both labels", msg)
	}
	if n := len(mock.Requests()); n != 0 {
		t.Errorf("model calls = %d, want 0", n)
	}
}

func TestAdviseRequest(t *testing.T) {
	mock := llm.NewMock("\n  Use a stepped-wedge rollout.  \n")
	e := testEngine(t, mock)

	got, err := e.Advise(context.Background(), advice.Measurement, measurementFields())
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if got != "Use a stepped-wedge rollout." {
		t.Errorf("advice = %q", got)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	r := reqs[0]
	if r.MaxTokens != 2048 || !r.WebSearch {
		t.Errorf("MaxTokens = %d WebSearch = %v", r.MaxTokens, r.WebSearch)
	}
	if !strings.Contains(r.Instructions, "Measurement Strategy") || !strings.Contains(r.Input, "(not provided)") {
		t.Error("request does not carry the built prompt")
	}
}

func TestAdviseEmptyReply(t *testing.T) {
	e := testEngine(t, llm.NewMock("   "))
	got, err := e.Advise(context.Background(), advice.Measurement, measurementFields())
	if err != nil {
		t.Fatalf("Advise: %v", err)
	}
	if got != NoAdvice {
		t.Errorf("advice = %q, want %q", got, NoAdvice)
	}
}

func TestAdviseUpstreamFailure(t *testing.T) {
	e := testEngine(t, &llm.MockClient{Err: errors.New("connection refused")})
	_, err := e.Advise(context.Background(), advice.Measurement, measurementFields())
	if !errors.Is(err, llm.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v, want underlying message", err)
	}
}

func TestSynthesizeProfileNoDecisions(t *testing.T) {
	mock := llm.NewMock("{}")
	e := testEngine(t, mock)

	res, err := e.SynthesizeProfile(context.Background(), "acct")
	if err != nil {
		t.Fatalf("SynthesizeProfile: %v", err)
	}
	if res.Profile != nil || res.DecisionsCount != 0 || res.Message != NoDecisionsYet {
		t.Errorf("result = %+v", res)
	}
	if len(mock.Requests()) != 0 {
		t.Error("model called for empty journal")
	}
}

func TestSynthesizeProfileMemoizedOnCount(t *testing.T) {
	mock := llm.NewMock("```json\n{\"industry\": \"retail\", \"focusAreas\": [\"pricing\", \"hiring\"], \"seniority\": \"VP\"}\n```")
	e := testEngine(t, mock)
	ctx := context.Background()
	seed(t, e.DB, "acct", decision.Decision{Title: "Raise prices"}, decision.Decision{Title: "Hire analyst", Outcome: "hired"})

	first, err := e.SynthesizeProfile(ctx, "acct")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !first.Updated || first.DecisionsCount != 2 {
		t.Errorf("first = %+v", first)
	}
	if first.Profile["industry"] != "retail" || first.Profile["focusAreas"] != "pricing, hiring" {
		t.Errorf("profile = %v", first.Profile)
	}

	second, err := e.SynthesizeProfile(ctx, "acct")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Updated {
		t.Error("second call recomputed with unchanged count")
	}
	if second.Profile["seniority"] != "VP" {
		t.Errorf("cached profile = %v", second.Profile)
	}
	if n := len(mock.Requests()); n != 1 {
		t.Errorf("model calls = %d, want 1", n)
	}

	seed(t, e.DB, "acct", decision.Decision{Title: "Third", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	third, err := e.SynthesizeProfile(ctx, "acct")
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if !third.Updated || third.DecisionsCount != 3 {
		t.Errorf("third = %+v", third)
	}
	if n := len(mock.Requests()); n != 2 {
		t.Errorf("model calls = %d, want 2", n)
	}
}

func TestSynthesizeProfileRequest(t *testing.T) {
	mock := llm.NewMock("{}")
	e := testEngine(t, mock)
	seed(t, e.DB, "acct",
		decision.Decision{Title: "Old", Context: strings.Repeat("x", 20000)},
		decision.Decision{Title: "New", Context: "short", Outcome: "done"},
	)

	if _, err := e.SynthesizeProfile(context.Background(), "acct"); err != nil {
		t.Fatalf("SynthesizeProfile: %v", err)
	}
	r := mock.Requests()[0]
	if r.MaxTokens != 512 || r.WebSearch {
		t.Errorf("MaxTokens = %d WebSearch = %v", r.MaxTokens, r.WebSearch)
	}
	if r.Instructions != llm.ProfileInstructions {
		t.Error("unexpected instructions")
	}
	doc := strings.TrimPrefix(r.Input, llm.ProfileInput(""))
	if len([]rune(doc)) != maxProfileDocChars {
		t.Errorf("document length = %d, want %d", len([]rune(doc)), maxProfileDocChars)
	}
	if !strings.HasPrefix(doc, "[1] Title: New\nContext: short\nOutcome: done\n\n[2] Title: Old\nContext: xxx") {
		t.Errorf("document starts %q", doc[:80])
	}
}

func TestSynthesizeProfileFallback(t *testing.T) {
	e := testEngine(t, llm.NewMock("This person seems to be a product manager."))
	ctx := context.Background()
	seed(t, e.DB, "acct", decision.Decision{Title: "Roadmap"})

	res, err := e.SynthesizeProfile(ctx, "acct")
	if err != nil {
		t.Fatalf("SynthesizeProfile: %v", err)
	}
	if res.Profile[OverflowKey] != "This person seems to be a product manager." {
		t.Errorf("profile = %v", res.Profile)
	}

	stored, _ := e.DB.GetProfile(ctx, "acct")
	if stored == nil || stored.Fields[OverflowKey] == "" || stored.DecisionsCount != 1 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestProfileFieldsNonObjectReply(t *testing.T) {
	tests := []struct {
		reply string
		want  map[string]string
	}{
		{"null", map[string]string{OverflowKey: "null"}},
		{"```json\nnull\n```", map[string]string{OverflowKey: "```json\nnull\n```"}},
		{"plain words", map[string]string{OverflowKey: "plain words"}},
		{"", map[string]string{}},
		{`{"industry":"retail"}`, map[string]string{"industry": "retail"}},
	}
	for _, tt := range tests {
		got := profileFields(llm.DecodeJSON[map[string]any](tt.reply))
		if len(got) != len(tt.want) {
			t.Errorf("profileFields(%q) = %v, want %v", tt.reply, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("profileFields(%q)[%q] = %q, want %q", tt.reply, k, got[k], v)
			}
		}
	}
}

func TestSynthesizeProfileNullReply(t *testing.T) {
	e := testEngine(t, llm.NewMock("null"))
	seed(t, e.DB, "acct", decision.Decision{Title: "x"})

	res, err := e.SynthesizeProfile(context.Background(), "acct")
	if err != nil {
		t.Fatalf("SynthesizeProfile: %v", err)
	}
	if res.Profile[OverflowKey] != "null" {
		t.Errorf("profile = %v, want raw text under %q", res.Profile, OverflowKey)
	}
}

func TestSynthesizeProfileUpstreamFailureStoresNothing(t *testing.T) {
	e := testEngine(t, &llm.MockClient{Err: errors.New("503")})
	ctx := context.Background()
	seed(t, e.DB, "acct", decision.Decision{Title: "x"})

	if _, err := e.SynthesizeProfile(ctx, "acct"); !errors.Is(err, llm.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if p, _ := e.DB.GetProfile(ctx, "acct"); p != nil {
		t.Errorf("profile stored after failure: %+v", p)
	}
}

func TestTextOf(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"tech", "tech"},
		{[]any{"a", 2.0, nil, "b"}, "a, 2, b"},
		{true, "true"},
		{35.0, "35"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := textOf(tt.in); got != tt.want {
			t.Errorf("textOf(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRefreshProfileAsync(t *testing.T) {
	e := testEngine(t, llm.NewMock(`{"industry": "health"}`))
	seed(t, e.DB, "acct", decision.Decision{Title: "Open clinic"})

	e.RefreshProfileAsync("acct")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	p, err := e.DB.GetProfile(context.Background(), "acct")
	if err != nil || p == nil {
		t.Fatalf("GetProfile = %+v, %v", p, err)
	}
	if p.Fields["industry"] != "health" {
		t.Errorf("Fields = %v", p.Fields)
	}
}

// stallClient blocks until the request context ends.
type stallClient struct{}

func (stallClient) Complete(ctx context.Context, r llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRefreshProfileAsyncTimesOut(t *testing.T) {
	e := New(testDB(t), stallClient{}, logging.Nop(), 50*time.Millisecond)
	seed(t, e.DB, "acct", decision.Decision{Title: "x"})

	start := time.Now()
	e.RefreshProfileAsync("acct")
	if time.Since(start) > 20*time.Millisecond {
		t.Error("RefreshProfileAsync blocked the caller")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p, _ := e.DB.GetProfile(context.Background(), "acct"); p != nil {
		t.Errorf("profile stored after timeout: %+v", p)
	}
}
