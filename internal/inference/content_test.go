package inference

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestContentUnmarshalString(t *testing.T) {
	var resp Response
	raw := `{"message":{"content":"{\"overallScore\":82}"}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	text, err := resp.Message.Content.FirstText()
	if err != nil {
		t.Fatalf("first text: %v", err)
	}
	if text != `{"overallScore":82}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestContentUnmarshalBlocks(t *testing.T) {
	var resp Response
	raw := `{"message":{"content":[{"type":"text","text":"first"},{"type":"text","text":"second"}]}}`
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	text, err := resp.Message.Content.FirstText()
	if err != nil {
		t.Fatalf("first text: %v", err)
	}
	if text != "first" {
		t.Fatalf("expected first block, got %q", text)
	}
}

func TestContentUnmarshalRejectsOtherShapes(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`{"text":"x"}`), &c); err == nil {
		t.Fatalf("expected error for object content")
	}
	if err := json.Unmarshal([]byte(`42`), &c); err == nil {
		t.Fatalf("expected error for numeric content")
	}
}

func TestContentEmptyBlocks(t *testing.T) {
	c := BlockContent()
	if _, err := c.FirstText(); err == nil {
		t.Fatalf("expected error for empty block list")
	}
}

func TestContentMarshalRoundTrip(t *testing.T) {
	for _, c := range []Content{TextContent("plain"), BlockContent(Block{Type: "text", Text: "block"})} {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back Content
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		want, _ := c.FirstText()
		got, err := back.FirstText()
		if err != nil || got != want {
			t.Fatalf("round trip text mismatch: %q vs %q (%v)", want, got, err)
		}
	}
}

func TestPrepareInstructionsDeterministic(t *testing.T) {
	in := Instructions{JobTitle: "Engineer", JobDescription: "Build things"}
	a := PrepareInstructions(in)
	b := PrepareInstructions(in)
	if a != b {
		t.Fatalf("instructions not deterministic")
	}
	for _, needle := range []string{"Engineer", "Build things", "overallScore", "toneAndStyle"} {
		if !strings.Contains(a, needle) {
			t.Fatalf("instructions missing %q", needle)
		}
	}
}
