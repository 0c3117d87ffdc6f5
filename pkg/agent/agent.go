package agent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"nutriplan-llm-be/internal/constant"
	"nutriplan-llm-be/pkg/agent/command"
	"nutriplan-llm-be/pkg/dataset"
	"nutriplan-llm-be/pkg/events"
	"nutriplan-llm-be/pkg/llm"
	"nutriplan-llm-be/pkg/rag/food"
	"nutriplan-llm-be/pkg/rag/manual"
	"nutriplan-llm-be/pkg/rag/reasoning"
	"nutriplan-llm-be/pkg/tools/backend"
	"nutriplan-llm-be/pkg/tools/websearch"
)

// AnalyticsPublisher receives turn events. Publishing is fire and forget;
// a nil publisher disables analytics entirely.
type AnalyticsPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

var dateContextPattern = regexp.MustCompile(`Date context: (\d{4}-\d{2}-\d{2})`)

// MealPlannerAgent routes each chat turn through classification, exactly one
// retrieval branch, and streamed generation.
type MealPlannerAgent struct {
	foodRAG   *food.Pipeline
	manualRAG *manual.Pipeline
	reasoner  *reasoning.Reasoner
	provider  llm.LLMProvider
	backend   *backend.Client
	webSearch *websearch.Client
	dataset   *dataset.Logger
	analytics AnalyticsPublisher
	logger    *log.Logger
}

func NewMealPlannerAgent(
	foodRAG *food.Pipeline,
	manualRAG *manual.Pipeline,
	reasoner *reasoning.Reasoner,
	provider llm.LLMProvider,
	backendClient *backend.Client,
	webSearchClient *websearch.Client,
	datasetLogger *dataset.Logger,
	analytics AnalyticsPublisher,
	logger *log.Logger,
) *MealPlannerAgent {
	logger.Printf("[Agent] Initialized with router-based flow")
	return &MealPlannerAgent{
		foodRAG:   foodRAG,
		manualRAG: manualRAG,
		reasoner:  reasoner,
		provider:  provider,
		backend:   backendClient,
		webSearch: webSearchClient,
		dataset:   datasetLogger,
		analytics: analytics,
		logger:    logger,
	}
}

// Chat processes one user turn. Events are delivered on the returned
// channel, which is closed when the turn finishes or ctx is cancelled.
func (a *MealPlannerAgent) Chat(ctx context.Context, message string, chatHistory []llm.Message, authToken string) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		a.runTurn(ctx, out, message, chatHistory, authToken)
	}()
	return out
}

func (a *MealPlannerAgent) emit(ctx context.Context, out chan<- Event, event Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *MealPlannerAgent) runTurn(ctx context.Context, out chan<- Event, message string, chatHistory []llm.Message, authToken string) {
	a.logger.Printf("[Agent] New request: %s (history=%d, auth=%t)", message, len(chatHistory), authToken != "")

	// 0. Summarize long history
	if len(chatHistory) > reasoning.SummarizeThreshold {
		if !a.emit(ctx, out, thinking("Updating conversation memory...")) {
			return
		}
		condensed, err := a.reasoner.SummarizeHistory(ctx, chatHistory)
		if err != nil {
			a.logger.Printf("[Agent] History summarization failed: %v", err)
			a.emit(ctx, out, errorEvent("Failed to update conversation memory."))
			return
		}
		chatHistory = condensed
	}

	// 1. Classify
	if !a.emit(ctx, out, thinking("Understanding your request...")) {
		return
	}
	category, err := a.reasoner.Classify(ctx, message)
	if err != nil {
		a.logger.Printf("[Agent] Classification failed: %v", err)
		a.emit(ctx, out, errorEvent("Failed to understand the request."))
		return
	}
	a.logger.Printf("[Agent] Category: %s", category)

	// 2. Exactly one retrieval branch fills the context. An unrecognized
	// label falls through with empty context.
	contextData, err := a.buildContext(ctx, out, category, message, chatHistory, authToken)
	if err != nil {
		a.logger.Printf("[Agent] Context retrieval failed: %v", err)
		a.emit(ctx, out, errorEvent("Failed to retrieve context for the request."))
		return
	}

	// 3. Generate the streamed answer
	if !a.emit(ctx, out, thinking("Drafting response...")) {
		return
	}
	fullResponse, ok := a.generate(ctx, out, message, contextData, chatHistory)
	if !ok {
		return
	}

	commands := command.Extract(fullResponse)

	finalPrompt := formatFinalPrompt(contextData, message)
	a.dataset.LogGeneration(constant.MainSystemPrompt, finalPrompt, fullResponse, contextData)
	a.publishTurnCompleted(category, len(contextData), len(fullResponse), len(commands))

	a.emit(ctx, out, done(commands))
}

// buildContext runs the retrieval branch selected by the category. A store
// or collaborator failure inside a branch is returned and ends the turn.
func (a *MealPlannerAgent) buildContext(ctx context.Context, out chan<- Event, category, message string, chatHistory []llm.Message, authToken string) (string, error) {
	switch {
	case strings.Contains(category, constant.CategoryArithmetic) || strings.Contains(category, constant.CategorySemantic):
		return a.foodSearchContext(ctx, out, message, chatHistory)

	case strings.Contains(category, constant.CategoryPersonalData) && authToken != "":
		return a.personalDataContext(ctx, out, message, authToken), nil

	case strings.Contains(category, constant.CategoryPersonalData):
		a.emit(ctx, out, thinking("Checking authentication..."))
		a.logger.Printf("[Agent] PERSONAL_DATA requested without auth token")
		return constant.LoginRequiredPersonalData, nil

	case strings.Contains(category, constant.CategoryGeneral):
		if containsAny(strings.ToLower(message), constant.HowToKeywords) {
			a.emit(ctx, out, thinking("Searching user manual..."))
			results, err := a.manualRAG.SemanticSearch(ctx, message, 3, nil)
			if err != nil {
				return "", fmt.Errorf("manual search: %w", err)
			}
			return manual.FormatResults(results), nil
		}
		return "", nil

	case strings.Contains(category, constant.CategoryWebSearch):
		a.emit(ctx, out, thinking("Searching the web..."))
		return a.webSearch.Search(ctx, message), nil

	case strings.Contains(category, constant.CategoryFrontendAction):
		return a.frontendActionContext(ctx, out, message, authToken), nil
	}

	a.logger.Printf("[Agent] Unrecognized category %q, continuing with empty context", category)
	return "", nil
}

func (a *MealPlannerAgent) foodSearchContext(ctx context.Context, out chan<- Event, message string, chatHistory []llm.Message) (string, error) {
	a.emit(ctx, out, thinking("Analyzing food criteria..."))
	params := a.reasoner.ParseSearchQuery(ctx, message, chatHistory)
	a.logger.Printf("[Agent] Filters: %v | Semantic: %q | Limit: %d", params.Filters, params.SemanticQuery, params.Limit)

	a.emit(ctx, out, thinking("Searching food database..."))
	result, err := a.foodRAG.Search(ctx, params)
	if err != nil {
		return "", fmt.Errorf("food search: %w", err)
	}
	if result.Path == food.PathRegexFallback {
		a.publishEvent(events.NewSearchFellBack(params.SemanticQuery, params.Filters))
	}

	contents := make([]string, len(result.Documents))
	for i, doc := range result.Documents {
		contents[i] = doc.Content
	}
	return strings.Join(contents, "\n"), nil
}

// personalDataContext dispatches inside PERSONAL_DATA by keyword. Meal-plan
// keywords are checked first; a message naming both a meal and the pantry
// goes to the meal plan.
func (a *MealPlannerAgent) personalDataContext(ctx context.Context, out chan<- Event, message, authToken string) string {
	lowerMsg := strings.ToLower(message)

	switch {
	case containsAny(lowerMsg, constant.MealPlanKeywords):
		contextDate := time.Now().Format("2006-01-02")
		if match := dateContextPattern.FindStringSubmatch(message); match != nil {
			contextDate = match[1]
		}

		// Strip the injected date header so the model only sees the
		// actual request when resolving the date.
		cleanQuery := message
		if _, after, found := strings.Cut(message, "Request:"); found {
			cleanQuery = strings.TrimSpace(after)
		}

		targetDate := a.reasoner.ResolveTargetDate(ctx, cleanQuery, contextDate)
		a.logger.Printf("[Agent] Resolved target date: %s (context: %s)", targetDate, contextDate)

		a.emit(ctx, out, thinking("Fetching meal plan for "+targetDate+"..."))
		return a.backend.GetDailyPlan(ctx, authToken, targetDate)

	case containsAny(lowerMsg, constant.PantryKeywords):
		a.emit(ctx, out, thinking("Checking your pantry..."))
		return a.backend.GetPantryItems(ctx, authToken, "")

	default:
		a.emit(ctx, out, thinking("Fetching your profile..."))
		return a.backend.GetUserProfile(ctx, authToken)
	}
}

// frontendActionContext allows navigation to public pages without auth;
// everything else requires a logged-in user.
func (a *MealPlannerAgent) frontendActionContext(ctx context.Context, out chan<- Event, message, authToken string) string {
	lowerMsg := strings.ToLower(message)
	isNavigationOnly := containsAny(lowerMsg, constant.NavigationKeywords)
	isPublicPage := containsAny(lowerMsg, constant.PublicPageKeywords)

	if authToken == "" && !(isNavigationOnly && isPublicPage) {
		a.emit(ctx, out, thinking("Checking authentication..."))
		a.logger.Printf("[Agent] FRONTEND_ACTION requested without auth token")
		return constant.LoginRequiredFrontendAction
	}

	a.emit(ctx, out, thinking("Processing action..."))
	return constant.FrontendActionInstruction
}

// generate streams the final answer and returns the accumulated text.
func (a *MealPlannerAgent) generate(ctx context.Context, out chan<- Event, message, contextData string, chatHistory []llm.Message) (string, bool) {
	finalPrompt := formatFinalPrompt(contextData, message)

	messages := make([]llm.Message, 0, len(chatHistory)+2)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleSystem, Content: constant.MainSystemPrompt})
	messages = append(messages, chatHistory...)
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: finalPrompt})

	a.logger.Printf("[Agent] Starting LLM streaming (context=%d chars)", len(contextData))
	stream, err := a.provider.Stream(ctx, messages)
	if err != nil {
		a.logger.Printf("[Agent] Stream start failed: %v", err)
		a.emit(ctx, out, errorEvent("Failed to generate a response."))
		return "", false
	}

	var full strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			a.logger.Printf("[Agent] Stream error: %v", chunk.Err)
			a.emit(ctx, out, errorEvent("Response stream interrupted."))
			return "", false
		}
		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		if !a.emit(ctx, out, token(chunk.Content)) {
			return "", false
		}
	}
	return full.String(), true
}

func (a *MealPlannerAgent) publishTurnCompleted(category string, contextLength, responseLength, commandCount int) {
	a.publishEvent(events.NewTurnCompleted(category, contextLength, responseLength, commandCount))
}

func (a *MealPlannerAgent) publishEvent(event events.Event) {
	if a.analytics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.analytics.Publish(ctx, event); err != nil {
			a.logger.Printf("[Agent] Analytics publish failed: %v", err)
		}
	}()
}

func formatFinalPrompt(contextData, query string) string {
	return fmt.Sprintf(constant.FinalPrompt, contextData, query)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
