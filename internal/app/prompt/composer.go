// Package prompt builds the system prompt and applies the two response
// shaping rules: the creator-identity canned answer and the statute citation footer.
package prompt

import (
	"regexp"
	"strings"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

// CreatorAnswer is returned verbatim whenever a creator trigger matches.
const CreatorAnswer = `I was made by TeamBangan as an HCI PIT for the 1st semester of 2025–2026.
Here are the members:
● Galendez, Hanz
● Lagamon, Lester
● Pon, Bryll Bryan
● Seguerra, Huebert
● Yarra, Dave`

// CitationFooter is appended, after a blank line, to replies about a statute.
const CitationFooter = "For full legal text, you may visit Lawphil: https://lawphil.net"

const systemPromptTemplate = `
You are JusticeConnect, a helpful AI legal assistant specialized in Philippine law.

LANGUAGE POLICY:
- Detect the language used in the user's latest message.
- ALWAYS reply in **that same language** (English, Tagalog, Bisaya, Cebuano, mixed, etc.).
- If uncertain, fall back to: {{language}}.

CREATOR / ORIGIN RULE:
If the user asks who made you, who created you, who built you,
“Sino gumawa sayo?”, “Kinsa nag-himo nimo?”, or anything related,
ALWAYS respond with this exact message:

"{{creator}}"

REPUBLIC ACT (RA) RULE:
If the user mentions any “RA ___”, “Republic Act ___”, “Batas”, or any Philippine law:
- Provide a simple explanation.
- ALWAYS include this line at the end:
“{{footer}}”

LEGAL GUIDELINES:
- Explain Philippine law in simple, clear terms.
- Provide general information only, not legal advice.
- Reference specific laws when relevant.
- Encourage consulting a licensed Philippine lawyer for specific concerns.
- Stay respectful, empathetic, and professional.
`

// creatorTriggers are matched as lower-cased substrings (English, Tagalog, Bisaya).
var creatorTriggers = []string{
	"who made you",
	"who created you",
	"who built you",
	"your creator",
	"sino gumawa",
	"gumawa sayo",
	"gumawa sa'yo",
	"kinsa nag himo",
	"kinsa nag-himo",
	"developer mo",
	"origin mo",
}

var statutePattern = regexp.MustCompile(`(?i)\b(?:ra|republic\s+act|batas)\s*\d+`)

// BuildSystemPrompt is deterministic for a given language, so a stored
// transcript replays to the same request.
func BuildSystemPrompt(lang domain.Language) string {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	r := strings.NewReplacer(
		"{{language}}", string(lang),
		"{{creator}}", CreatorAnswer,
		"{{footer}}", CitationFooter,
	)
	return r.Replace(systemPromptTemplate)
}

// DetectCreatorTrigger reports whether the message asks who made the assistant.
func DetectCreatorTrigger(message string) bool {
	lower := strings.ToLower(message)
	for _, t := range creatorTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// DetectStatuteReference matches "RA 1234", "Republic Act 1234" and "Batas 1234".
func DetectStatuteReference(message string) bool {
	return statutePattern.MatchString(message)
}

// InjectCitationFooter appends the footer once. When the model already ended
// its reply with a Lawphil line, quoted or punctuated differently, that line
// is replaced by the canonical footer.
func InjectCitationFooter(reply string) string {
	body := strings.TrimRight(reply, " \t\r\n")
	last := body
	if i := strings.LastIndex(body, "\n"); i >= 0 {
		last = body[i+1:]
	}
	if isFooterLine(last) {
		body = strings.TrimRight(strings.TrimSuffix(body, last), " \t\r\n")
	}
	if body == "" {
		return CitationFooter
	}
	return body + "\n\n" + CitationFooter
}

var footerLower = strings.ToLower(CitationFooter)

func isFooterLine(line string) bool {
	line = strings.ToLower(strings.Trim(line, " \t\r\"'“”‘’.!*_"))
	return strings.Contains(line, "lawphil.net") || strings.HasPrefix(line, footerLower)
}

// Compose returns [system prompt] + history + [user message], in that order.
// history is copied, never aliased.
func Compose(lang domain.Language, history []domain.Message, userText string) []domain.Message {
	out := make([]domain.Message, 0, len(history)+2)
	out = append(out, domain.SystemMessage(BuildSystemPrompt(lang)))
	out = append(out, history...)
	out = append(out, domain.UserMessage(userText))
	return out
}
