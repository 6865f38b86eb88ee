package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// DefaultDocumentTitle names the corpus in prompts when none is configured.
const DefaultDocumentTitle = "the 2019 Standard Specifications for Road and Bridge Construction"

// SystemPrompt tells the generator to answer only from the supplied context
// and to cite section ids and page ranges.
func SystemPrompt(documentTitle string) string {
	if documentTitle == "" {
		documentTitle = DefaultDocumentTitle
	}
	return fmt.Sprintf(`You are an assistant for a construction and materials division. You answer questions strictly using %s.
Always:
1) Answer in clear, concise language.
2) Explicitly cite the relevant section IDs and page ranges.
3) If the answer is not clearly supported by the provided sections, say you are unsure and suggest where a human should look.
Do not invent requirements that are not in the context.`, documentTitle)
}

// BuildUserMessage packs the question and the assembled context block.
func BuildUserMessage(documentTitle, question, context string) string {
	if documentTitle == "" {
		documentTitle = DefaultDocumentTitle
	}
	var sb strings.Builder
	sb.WriteString("User question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nRelevant sections and chunks:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nUsing ONLY the information above, answer the question and cite specific sections and pages from ")
	sb.WriteString(documentTitle)
	sb.WriteString(".")
	return sb.String()
}

// MaxQuestionLen bounds question length in bytes.
const MaxQuestionLen = 2000

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)\s+instructions|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

// ValidateQuestion trims q and checks its length.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("%w: question is empty", corpus.ErrValidation)
	}
	if len(q) > MaxQuestionLen {
		return "", fmt.Errorf("%w: question exceeds %d bytes", corpus.ErrValidation, MaxQuestionLen)
	}
	return q, nil
}

// LooksLikeInjection reports questions that try to override the system prompt.
// They are still answered; callers log them.
func LooksLikeInjection(q string) bool {
	return injectionPattern.MatchString(q)
}
