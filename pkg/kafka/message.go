// Package kafka wraps segmentio/kafka-go for supplier feed ingestion and
// reconcile event publishing.
package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
)

// FeedMessage is one supplier feed delivery arriving on the feed topic.
// The payload mirrors the pull-style resync request so both ingestion paths
// share processing.
type FeedMessage struct {
	TenantID     string              `json:"tenant_id"`
	Taxonomy     models.Taxonomy     `json:"taxonomy"`
	SupplierID   string              `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	Records      []models.FeedRecord `json:"records"`
	Timestamp    time.Time           `json:"timestamp"`
}

// ParseFeedMessage parses a feed message from raw bytes
func ParseFeedMessage(data []byte) (*FeedMessage, error) {
	var msg FeedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse feed message: %w", err)
	}
	if msg.TenantID == "" {
		return nil, fmt.Errorf("feed message missing tenant_id")
	}
	if !msg.Taxonomy.Valid() {
		return nil, fmt.Errorf("feed message has unknown taxonomy %q", msg.Taxonomy)
	}
	if msg.SupplierID == "" {
		return nil, fmt.Errorf("feed message missing supplier_id")
	}
	return &msg, nil
}

// ReconcileEventType identifies what a reconcile event describes
type ReconcileEventType string

const (
	EventMasterCreated    ReconcileEventType = "master.created"
	EventRecordsMatched   ReconcileEventType = "records.matched"
	EventRecordsUnmatched ReconcileEventType = "records.unmatched"
	EventRecordMoved      ReconcileEventType = "record.moved"
)

// ReconcileEvent is published after a reconciliation mutation commits
type ReconcileEvent struct {
	Type      ReconcileEventType `json:"type"`
	TenantID  string             `json:"tenant_id"`
	Taxonomy  models.Taxonomy    `json:"taxonomy,omitempty"`
	MasterID  string             `json:"master_id,omitempty"`
	RecordIDs []string           `json:"record_ids,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ToJSON serializes the event
func (e *ReconcileEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// MessageHeaders contains Kafka message headers for efficient filtering
type MessageHeaders struct {
	TenantID    string
	Taxonomy    string
	SupplierID  string
	TraceParent string
}

// ToKafkaHeaders converts MessageHeaders to a slice of header key-value pairs
func (h *MessageHeaders) ToKafkaHeaders() []Header {
	headers := make([]Header, 0, 4)

	if h.TenantID != "" {
		headers = append(headers, Header{Key: "tenant_id", Value: []byte(h.TenantID)})
	}
	if h.Taxonomy != "" {
		headers = append(headers, Header{Key: "taxonomy", Value: []byte(h.Taxonomy)})
	}
	if h.SupplierID != "" {
		headers = append(headers, Header{Key: "supplier_id", Value: []byte(h.SupplierID)})
	}
	if h.TraceParent != "" {
		headers = append(headers, Header{Key: "traceparent", Value: []byte(h.TraceParent)})
	}

	return headers
}

// Header is a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// ExtractHeaders extracts MessageHeaders from Kafka headers
func ExtractHeaders(headers []Header) MessageHeaders {
	var mh MessageHeaders
	for _, h := range headers {
		switch h.Key {
		case "tenant_id":
			mh.TenantID = string(h.Value)
		case "taxonomy":
			mh.Taxonomy = string(h.Value)
		case "supplier_id":
			mh.SupplierID = string(h.Value)
		case "traceparent":
			mh.TraceParent = string(h.Value)
		}
	}
	return mh
}
