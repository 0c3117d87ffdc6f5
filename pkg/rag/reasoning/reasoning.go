package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"nutriplan-llm-be/internal/constant"
	"nutriplan-llm-be/pkg/dataset"
	"nutriplan-llm-be/pkg/llm"
	"nutriplan-llm-be/pkg/store"
)

// historyKeepRecent is how many trailing messages survive summarization
// verbatim.
const historyKeepRecent = 2

// summarizeThreshold is the history length above which the agent condenses
// older turns into a single summary message.
const SummarizeThreshold = 5

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Reasoner wraps the single-round-trip cognition tasks: classification,
// query refinement, structured search parsing, date resolution and history
// summarization. Each call is one model invocation plus deterministic
// post-parsing.
type Reasoner struct {
	provider      llm.LLMProvider
	datasetLogger *dataset.Logger
	logger        *log.Logger
}

func NewReasoner(provider llm.LLMProvider, datasetLogger *dataset.Logger, logger *log.Logger) *Reasoner {
	return &Reasoner{
		provider:      provider,
		datasetLogger: datasetLogger,
		logger:        logger,
	}
}

// Classify maps the query onto a category label. The result is uppercased
// and trimmed; callers match by substring containment because the model may
// wrap the label in extra words.
func (r *Reasoner) Classify(ctx context.Context, query string) (string, error) {
	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.ClassificationSystemPrompt},
		{Role: constant.ChatMessageRoleUser, Content: query},
	}
	response, err := r.provider.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("classify query: %w", err)
	}
	return strings.ToUpper(strings.TrimSpace(response)), nil
}

// RefineSemanticQuery rewrites the query into English search keywords.
func (r *Reasoner) RefineSemanticQuery(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(constant.RefineQueryPrompt, query)
	response, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}
	refined := strings.TrimSpace(response)

	r.datasetLogger.LogRefinement(constant.RefineQuerySystemPrompt, query, refined)
	return refined, nil
}

// ParseSearchQuery extracts filters, semantic intent and a result limit from
// the query. Parsing is fail-open: malformed model output yields the default
// parameters rather than an error.
func (r *Reasoner) ParseSearchQuery(ctx context.Context, query string, chatHistory []llm.Message) store.SearchParameters {
	historyText := constant.NoPreviousContext
	if len(chatHistory) > 0 {
		// last 3 exchanges keep the context relevant but short
		relevant := chatHistory
		if len(relevant) > 6 {
			relevant = relevant[len(relevant)-6:]
		}
		lines := make([]string, len(relevant))
		for i, msg := range relevant {
			lines[i] = fmt.Sprintf("%s: %s", strings.ToUpper(msg.Role), msg.Content)
		}
		historyText = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(constant.StructuredSearchPrompt, historyText, query)
	response, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		r.logger.Printf("[Reasoner] Structured search parse failed: %v", err)
		return store.DefaultSearchParameters()
	}
	content := strings.TrimSpace(response)
	if match := codeFencePattern.FindStringSubmatch(content); match != nil {
		content = match[1]
	}

	params := store.DefaultSearchParameters()
	var parsed struct {
		Filters       store.Filter    `json:"filters"`
		SemanticQuery string          `json:"semantic_query"`
		Limit         json.RawMessage `json:"limit"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		r.logger.Printf("[Reasoner] Structured search returned non-JSON, using defaults: %v", err)
	} else {
		if parsed.Filters != nil {
			params.Filters = parsed.Filters
		}
		params.SemanticQuery = parsed.SemanticQuery
		if limit, ok := parseLimit(parsed.Limit); ok {
			params.Limit = limit
		}
	}

	r.datasetLogger.LogRefinement(constant.StructuredSearchSystemPrompt, query, content)
	return params
}

// parseLimit tolerates both 5 and "5" since models are inconsistent here.
// Non-positive values are rejected so the caller keeps the default.
func parseLimit(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, n > 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err == nil {
			return n, n > 0
		}
	}
	return 0, false
}

// ResolveTargetDate determines the calendar date a request refers to
// ("tomorrow", "21/01", "next Monday") relative to contextDate. Anything
// that is not a strict YYYY-MM-DD answer falls back to contextDate.
func (r *Reasoner) ResolveTargetDate(ctx context.Context, query, contextDate string) string {
	prompt := fmt.Sprintf(constant.ResolveDatePrompt, contextDate, query)
	response, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		r.logger.Printf("[Reasoner] Date resolution failed, using context date: %v", err)
		return contextDate
	}

	resolved := strings.TrimSpace(response)
	if _, err := time.Parse("2006-01-02", resolved); err != nil {
		r.logger.Printf("[Reasoner] Date resolution returned %q, using context date", resolved)
		return contextDate
	}
	return resolved
}

// SummarizeHistory condenses everything except the last two messages into a
// single system message carrying the summary. Short histories pass through
// untouched.
func (r *Reasoner) SummarizeHistory(ctx context.Context, chatHistory []llm.Message) ([]llm.Message, error) {
	if len(chatHistory) < SummarizeThreshold {
		return chatHistory, nil
	}

	toSummarize := chatHistory[:len(chatHistory)-historyKeepRecent]
	recent := chatHistory[len(chatHistory)-historyKeepRecent:]

	lines := make([]string, len(toSummarize))
	for i, msg := range toSummarize {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}

	prompt := fmt.Sprintf(constant.SummarizeHistoryPrompt, strings.Join(lines, "\n"))
	summary, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize history: %w", err)
	}

	condensed := make([]llm.Message, 0, historyKeepRecent+1)
	condensed = append(condensed, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.HistorySummaryPrefix + strings.TrimSpace(summary),
	})
	condensed = append(condensed, recent...)
	return condensed, nil
}
