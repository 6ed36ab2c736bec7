package translation

import (
	"fmt"
	"strings"

	"alad-i18n/internal/glossary"
	"alad-i18n/internal/rag"
)

// PromptBuilder constructs system and user prompts for LLM translation.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

const systemPromptTemplate = `You are a professional software localizer translating user interface strings from Simplified Chinese to %s.

Rules:
1. Translate Simplified Chinese to %s.
2. Use the renderings given in the glossary whenever a glossary term appears.
3. Stay consistent with the similar translations when they are given.
4. Preserve ALL placeholders like {{var_1}}, {{var_2}}, etc. exactly as-is.
5. Keep punctuation, HTML tags and leading or trailing symbols.
6. Output ONLY the translations, nothing else.
7. Keep UI text short and natural.`

// SystemPrompt returns the system prompt for a target language code.
func (pb *PromptBuilder) SystemPrompt(lang string) string {
	name := DisplayName(lang)
	return fmt.Sprintf(systemPromptTemplate, name, name)
}

// BuildBatchUserPrompt constructs a prompt for batch translations.
func (pb *PromptBuilder) BuildBatchUserPrompt(texts []string, terms []glossary.Term, examples []rag.Example) string {
	var sb strings.Builder

	sb.WriteString(rag.BuildContextString(examples))

	if len(terms) > 0 {
		sb.WriteString("=== Glossary ===\n")
		for _, t := range terms {
			sb.WriteString(fmt.Sprintf("• %s → %s\n", t.Chinese, t.Translation))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Translate each text below. Return ONLY the translations, separated by ||| delimiter, in the same order.\n\n")
	for i, t := range texts {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, t))
	}

	return sb.String()
}
