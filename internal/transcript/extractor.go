package transcript

import "strings"

// systemMarker is the reserved prefix on injected housekeeping turns; they are
// never user queries and must not become exchanges.
const systemMarker = "System:"

// ExtractOptions tunes the acceptance filter. Zero values give the sync-path
// behavior; the training exporter passes stricter minimums.
type ExtractOptions struct {
	// MinUserLen rejects exchanges whose stripped user text is this short or
	// shorter (in runes). Zero keeps any non-empty user text.
	MinUserLen int
	// MinAssistantLen rejects exchanges whose assistant text is shorter than
	// this (in runes). Zero keeps any non-empty assistant text.
	MinAssistantLen int
}

// ExtractExchanges runs a single pass over records and emits one exchange per
// accepted user turn. The scan seeks a user-role message, then collects the
// text of every assistant-role message up to the next user-role message;
// records of other kinds or roles in between neither terminate the collection
// nor contribute text. Rejected candidates are dropped and the scan resumes at
// the record that ended their collection.
func ExtractExchanges(records []Record, opts ExtractOptions) []Exchange {
	var messages []Record
	for _, rec := range records {
		if rec.Kind == KindMessage {
			messages = append(messages, rec)
		}
	}

	var exchanges []Exchange
	i := 0
	for i < len(messages) {
		if messages[i].Message.Role != RoleUser {
			i++
			continue
		}

		var assistantParts []string
		j := i + 1
		for j < len(messages) {
			role := messages[j].Message.Role
			if role == RoleUser {
				break
			}
			if role == RoleAssistant {
				if text := ExtractText(messages[j].Message.Content); text != "" {
					assistantParts = append(assistantParts, text)
				}
			}
			j++
		}

		userText := StripEnvelope(ExtractText(messages[i].Message.Content))
		assistantText := strings.Join(assistantParts, "\n")

		if accept(userText, assistantText, opts) {
			exchanges = append(exchanges, Exchange{
				UserText:      userText,
				AssistantText: assistantText,
				Timestamp:     messages[i].Timestamp,
				Position:      i,
			})
		}

		i = j
	}
	return exchanges
}

func accept(userText, assistantText string, opts ExtractOptions) bool {
	if userText == "" || assistantText == "" {
		return false
	}
	if strings.HasPrefix(userText, systemMarker) {
		return false
	}
	if opts.MinUserLen > 0 && len([]rune(userText)) <= opts.MinUserLen {
		return false
	}
	if opts.MinAssistantLen > 0 && len([]rune(assistantText)) < opts.MinAssistantLen {
		return false
	}
	return true
}
