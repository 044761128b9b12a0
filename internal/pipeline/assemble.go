package pipeline

import (
	"strings"

	"github.com/mkoziel/vitrine/internal/convmem"
	"github.com/mkoziel/vitrine/internal/retrieval"
	"github.com/mkoziel/vitrine/pkg/message"
)

// defaultPersona is the system prompt used when the config does not override
// it. The assistant answers as the portfolio owner, in the visitor's
// language, and only from the supplied evidence.
const defaultPersona = "Jesteś asystentem portfolio i odpowiadasz w imieniu jego autora. " +
	"Odpowiadaj w języku pytania, zwięźle i konkretnie. " +
	"Opieraj się wyłącznie na dostarczonym kontekście; jeśli kontekst nie wystarcza, powiedz to wprost."

// assemblePrompt merges persona, pruned evidence and relevant history into
// one system prompt, sections joined by blank lines.
func assemblePrompt(persona string, evidence []retrieval.SearchResult, history []convmem.Message) string {
	parts := make([]string, 0, 3)
	if persona == "" {
		persona = defaultPersona
	}
	parts = append(parts, persona)

	if section := formatEvidence(evidence); section != "" {
		parts = append(parts, section)
	}
	if section := formatHistory(history); section != "" {
		parts = append(parts, section)
	}
	return strings.Join(parts, "\n\n")
}

func formatEvidence(evidence []retrieval.SearchResult) string {
	if len(evidence) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Kontekst\n")
	for _, r := range evidence {
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(r.Chunk.Text))
	}
	return b.String()
}

func formatHistory(history []convmem.Message) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Wcześniejsza rozmowa\n")
	for _, m := range history {
		b.WriteString("\n")
		if m.Role == message.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
