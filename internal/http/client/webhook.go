package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WorkOrderStatusEvent is the payload posted to the configured webhook when
// a work order changes lifecycle state.
type WorkOrderStatusEvent struct {
	Event          string    `json:"event"`
	OrganizationID string    `json:"organizationId"`
	WorkOrderID    string    `json:"workOrderId"`
	TeamID         string    `json:"teamId"`
	EquipmentID    string    `json:"equipmentId"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	AssigneeID     *string   `json:"assigneeId,omitempty"`
	ChangedBy      string    `json:"changedBy"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// WebhookNotifier posts work-order lifecycle events to an external endpoint.
// A nil notifier (no webhook configured) is valid and drops all events.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier for the given endpoint. Returns nil
// when url is empty so callers can use one nil check instead of config
// plumbing.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:    url,
		client: NewHTTPClient(timeout),
	}
}

// NotifyWorkOrderStatus posts one status-change event. The response body is
// discarded; non-2xx responses are reported as errors for the caller to log.
func (n *WebhookNotifier) NotifyWorkOrderStatus(ctx context.Context, event WorkOrderStatusEvent) error {
	if n == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
