package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// RunMessage is the run-completion notification payload.
type RunMessage struct {
	RunID      string `json:"run_id"`
	ScenarioID int64  `json:"scenario_id"`
	FactCount  int    `json:"fact_count"`
}

// WebhookNotifier announces persisted runs via webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, logger *log.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// NotifyRunCompleted sends the run notification, logging failures instead of
// surfacing them: a persisted run must not fail because a webhook is down.
func (n *WebhookNotifier) NotifyRunCompleted(runID string, scenarioID int64, factCount int) {
	if n == nil || n.url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msg := RunMessage{RunID: runID, ScenarioID: scenarioID, FactCount: factCount}
	if err := n.send(ctx, msg); err != nil && n.logger != nil {
		n.logger.Printf("run webhook failed: run=%s err=%v", runID, err)
	}
}

func (n *WebhookNotifier) send(ctx context.Context, msg RunMessage) error {
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatRunMessage(msg)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("run webhook: non-2xx")
	}
	return nil
}

func formatRunMessage(msg RunMessage) string {
	var b strings.Builder
	b.WriteString("[Engine Run Completed]\n")
	fmt.Fprintf(&b, "Run: %s\n", msg.RunID)
	fmt.Fprintf(&b, "Scenario: %d\n", msg.ScenarioID)
	fmt.Fprintf(&b, "Facts: %d\n", msg.FactCount)
	return strings.TrimSpace(b.String())
}
