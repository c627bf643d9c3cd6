package prompt

import (
	"fmt"
	"sort"
	"strings"

	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
)

const topSenders = 5

// systemPrompt directs the model to produce one self-contained HTML report.
const systemPrompt = `You are a professional data analyst and front-end engineer. From the chat data provided, generate one complete, directly runnable HTML page.

Requirements:
- The page must be a full HTML document (DOCTYPE, html, head, body).
- Put CSS inside a <style> tag and JavaScript inside a <script> tag.
- Chart libraries (Chart.js, D3.js) may be loaded from a CDN; no other external files.
- The page must be clean, professional and responsive, with a warm color palette.
- Include real analysis and visualization of the provided data.

Return only the complete HTML code with no surrounding commentary.`

// Builder turns fetched messages into the provider payload: a stats header,
// the complete transcript, then the analysis instructions. The transcript is
// never truncated or sampled; completeness beats request size here.
type Builder struct{}

func NewBuilder() Builder { return Builder{} }

// System returns the instruction set shared by every analysis type.
func (Builder) System() string { return systemPrompt }

// Build is deterministic for identical inputs.
func (Builder) Build(analysisType string, messages []domain.ChatMessage, customPrompt string) string {
	valid := make([]domain.ChatMessage, 0, len(messages))
	counts := map[string]int{}
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		valid = append(valid, m)
		if m.SenderName != "" {
			counts[m.SenderName]++
		}
	}

	conversation := "unknown"
	if len(messages) > 0 && messages[0].TalkerName != "" {
		conversation = messages[0].TalkerName
	}

	var first, last string
	if len(messages) > 0 {
		first = messages[0].Time.Format("2006-01-02 15:04:05")
		last = messages[len(messages)-1].Time.Format("2006-01-02 15:04:05")
	}

	var b strings.Builder
	b.WriteString("Chat data overview:\n")
	fmt.Fprintf(&b, "- Conversation: %s\n", conversation)
	fmt.Fprintf(&b, "- Total messages: %d (valid text messages: %d)\n", len(messages), len(valid))
	fmt.Fprintf(&b, "- Time range: %s to %s\n", first, last)
	fmt.Fprintf(&b, "- Active senders: %d\n", len(counts))
	fmt.Fprintf(&b, "- Top senders: %s\n", rankSenders(counts))

	b.WriteString("\nComplete chat transcript:\n")
	for _, m := range valid {
		fmt.Fprintf(&b, "%s [%s]: %s\n", m.Time.Format("2006-01-02 15:04:05"), m.SenderName, m.Content)
	}

	b.WriteString("\n")
	if strings.TrimSpace(customPrompt) != "" {
		b.WriteString(customPrompt)
	} else {
		b.WriteString(instructions(analysisType))
	}
	return b.String()
}

// Title maps an analysis type to its display title.
func (Builder) Title(analysisType string) string {
	switch analysisType {
	case "programming":
		return "Programming Topics Analysis"
	case "science":
		return "Science Learning Analysis"
	case "reading":
		return "Reading Discussion Analysis"
	case "custom":
		return "Custom Analysis"
	default:
		return "Chat Data Analysis"
	}
}

// rankSenders returns the top senders by message count, descending, ties
// broken by name so output stays deterministic.
func rankSenders(counts map[string]int) string {
	type entry struct {
		name  string
		count int
	}
	ranked := make([]entry, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, entry{name, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > topSenders {
		ranked = ranked[:topSenders]
	}
	parts := make([]string, len(ranked))
	for i, e := range ranked {
		parts[i] = fmt.Sprintf("%s(%d)", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}

func instructions(analysisType string) string {
	switch analysisType {
	case "programming":
		return "Analyze the programming and technology topics discussed above: languages, frameworks, problems raised and how they were resolved, plus who contributed the most useful answers."
	case "science":
		return "Analyze the science learning discussion above: topics covered, questions asked, explanations given, and any recurring themes worth following up."
	case "reading":
		return "Analyze the reading discussion above: books and articles mentioned, opinions exchanged, and recommendations worth highlighting."
	default:
		return "Analyze the chat data above."
	}
}
