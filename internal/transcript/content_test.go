package transcript

import (
	"encoding/json"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	if got := ExtractText(PlainContent("  hello  ")); got != "hello" {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestExtractTextBlocks(t *testing.T) {
	c := BlockContent(
		Block{Type: "text", Text: "first"},
		Block{Type: "tool_use", Text: "ignored"},
		Block{Type: "text", Text: "second"},
	)
	if got := ExtractText(c); got != "first\nsecond" {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestExtractTextEmptyVariant(t *testing.T) {
	if got := ExtractText(Content{}); got != "" {
		t.Errorf("ExtractText = %q", got)
	}
}

func TestContentUnmarshal(t *testing.T) {
	var c Content
	if err := json.Unmarshal([]byte(`"plain text"`), &c); err != nil {
		t.Fatal(err)
	}
	if got := ExtractText(c); got != "plain text" {
		t.Errorf("plain = %q", got)
	}

	if err := json.Unmarshal([]byte(`[{"type":"text","text":"a"},{"type":"tool_result"}]`), &c); err != nil {
		t.Fatal(err)
	}
	if got := ExtractText(c); got != "a" {
		t.Errorf("blocks = %q", got)
	}

	// Any other shape decodes to the empty variant without error.
	if err := json.Unmarshal([]byte(`{"weird":true}`), &c); err != nil {
		t.Fatal(err)
	}
	if got := ExtractText(c); got != "" {
		t.Errorf("unknown shape = %q", got)
	}
}

func TestStripEnvelope(t *testing.T) {
	in := "[Telegram chat 2024-01-01 09:00 GMT+0]Hello\n[message_id: 42]"
	if got := StripEnvelope(in); got != "Hello" {
		t.Errorf("StripEnvelope = %q", got)
	}
}

func TestStripEnvelopeVariants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no envelope", "just text", "just text"},
		{"header only", "[Telegram group chat 2024-03-10 18:30 GMT-3] what's up", "what's up"},
		{"footer only", "hello\n[message_id: 7]", "hello"},
		{"multiline body", "[Signal dm 2024-01-01 09:00 GMT+1]line one\nline two\n[message_id: 1]", "line one\nline two"},
		{"envelope only", "[Telegram chat 2024-01-01 09:00 GMT+0]\n[message_id: 3]", ""},
		{"header not at start is kept", "see [Telegram chat 2024-01-01 09:00 GMT+0]", "see [Telegram chat 2024-01-01 09:00 GMT+0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEnvelope(tt.in); got != tt.want {
				t.Errorf("StripEnvelope(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
