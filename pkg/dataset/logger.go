package dataset

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Topics carrying fine-tuning samples through the in-process bus.
const (
	TopicRefinement = "dataset.refinement"
	TopicGeneration = "dataset.generation"
)

// Entry is one fine-tuning sample in chat format.
type Entry struct {
	Messages []EntryMessage `json:"messages"`
	Metadata EntryMetadata  `json:"metadata"`
}

type EntryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type EntryMetadata struct {
	SessionID      string `json:"session_id"`
	Timestamp      string `json:"timestamp"`
	Type           string `json:"type,omitempty"`
	TurnID         int    `json:"turn_id,omitempty"`
	ContextPreview string `json:"context_preview,omitempty"`
}

// Logger captures LLM turns as JSONL for fine-tuning. Writes go through a
// watermill pub/sub so the hot request path never blocks on disk.
type Logger struct {
	pubSub    *gochannel.GoChannel
	sessionID string
	turnCount atomic.Int64
	logger    *log.Logger
}

func NewLogger(pubSub *gochannel.GoChannel, logger *log.Logger) *Logger {
	return &Logger{
		pubSub:    pubSub,
		sessionID: uuid.NewString(),
		logger:    logger,
	}
}

// LogRefinement records a query refinement step (user query -> structured
// search parameters or semantic query).
func (l *Logger) LogRefinement(systemPrompt, userInput, refinedOutput string) {
	entry := Entry{
		Messages: []EntryMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
			{Role: "assistant", Content: refinedOutput},
		},
		Metadata: EntryMetadata{
			SessionID: l.sessionID,
			Timestamp: time.Now().Format(time.RFC3339),
			Type:      "refinement",
		},
	}
	l.publish(TopicRefinement, entry)
}

// LogGeneration records a full chat turn. userInput is the final prompt the
// model saw, context included.
func (l *Logger) LogGeneration(systemPrompt, userInput, assistantResponse, contextData string) {
	turnID := l.turnCount.Add(1)
	entry := Entry{
		Messages: []EntryMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
			{Role: "assistant", Content: assistantResponse},
		},
		Metadata: EntryMetadata{
			SessionID:      l.sessionID,
			Timestamp:      time.Now().Format(time.RFC3339),
			TurnID:         int(turnID),
			ContextPreview: previewOrNA(contextData, 200),
		},
	}
	l.publish(TopicGeneration, entry)
}

func (l *Logger) publish(topic string, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[ERROR] [DatasetLogger] Failed to marshal entry: %v", err)
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := l.pubSub.Publish(topic, msg); err != nil {
		l.logger.Printf("[ERROR] [DatasetLogger] Failed to publish to %s: %v", topic, err)
	}
}

func previewOrNA(s string, n int) string {
	if s == "" {
		return "N/A"
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Writer consumes dataset topics and appends each entry as one JSON line.
type Writer struct {
	pubSub        *gochannel.GoChannel
	refinementLog string
	generationLog string
	logger        *log.Logger
}

func NewWriter(pubSub *gochannel.GoChannel, refinementLog, generationLog string, logger *log.Logger) *Writer {
	return &Writer{
		pubSub:        pubSub,
		refinementLog: refinementLog,
		generationLog: generationLog,
		logger:        logger,
	}
}

// Consume subscribes to both topics and writes until ctx is cancelled.
func (w *Writer) Consume(ctx context.Context) error {
	refinement, err := w.pubSub.Subscribe(ctx, TopicRefinement)
	if err != nil {
		return err
	}
	generation, err := w.pubSub.Subscribe(ctx, TopicGeneration)
	if err != nil {
		return err
	}

	go w.drain(refinement, w.refinementLog)
	go w.drain(generation, w.generationLog)
	return nil
}

func (w *Writer) drain(messages <-chan *message.Message, path string) {
	for msg := range messages {
		if err := w.appendLine(path, msg.Payload); err != nil {
			w.logger.Printf("[ERROR] [DatasetLogger] Failed to write %s: %v", path, err)
		}
		// Ack regardless, a bad sample is not worth a retry loop
		msg.Ack()
	}
}

func (w *Writer) appendLine(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return err
	}
	return nil
}
