// Package transcript parses append-only session event logs and extracts
// normalized user/assistant exchanges from them.
package transcript

import "encoding/json"

// Record kinds that appear in session logs. Only message records carry
// conversational content; every other kind is ignored by the extractor
// but still occupies a position in the stream.
const KindMessage = "message"

// Roles on message records.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Record is one parsed line of a session event log.
type Record struct {
	Kind      string  `json:"type"`
	Message   Message `json:"message"`
	Timestamp string  `json:"timestamp"`
}

// Message is the conversational body of a message record.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// contentKind discriminates the Content union.
type contentKind int

const (
	contentNone contentKind = iota
	contentPlain
	contentBlocks
)

// Block is one element of structured message content. Only text blocks
// contribute to extracted text; tool calls and results are skipped.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content is the polymorphic content of a message: either a plain string or a
// sequence of typed blocks. Any other JSON shape decodes to the empty variant.
type Content struct {
	kind   contentKind
	plain  string
	blocks []Block
}

// PlainContent returns a Content holding a plain string.
func PlainContent(s string) Content {
	return Content{kind: contentPlain, plain: s}
}

// BlockContent returns a Content holding a block sequence.
func BlockContent(blocks ...Block) Content {
	return Content{kind: contentBlocks, blocks: blocks}
}

// UnmarshalJSON decodes either a JSON string or an array of blocks.
// Unrecognized shapes yield the empty variant rather than an error, so a
// single odd record cannot abort a log scan.
func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = PlainContent(s)
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err == nil {
		*c = Content{kind: contentBlocks, blocks: blocks}
		return nil
	}
	*c = Content{}
	return nil
}

// Exchange is one normalized user-query/assistant-response pair derived from a
// log scan. AssistantText is the newline-joined text of every assistant record
// between the triggering user record and the next user record. Position is the
// index of the triggering user record among the log's message records; it is
// what makes exchange-derived knowledge unit ids stable across re-syncs.
type Exchange struct {
	UserText      string
	AssistantText string
	Timestamp     string
	Position      int
}
