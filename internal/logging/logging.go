package logging

import (
	"encoding/json"
	"log"
	"time"
)

// Fields is the structured log line emitted for pipeline steps.
type Fields struct {
	Service string `json:"service"`
	OrderID string `json:"order_id,omitempty"`
	StoreID string `json:"store_id,omitempty"`
	Step    string `json:"step,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Log writes one JSON line to the standard logger.
func Log(fields Fields) {
	payload := map[string]any{
		"service":   fields.Service,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if fields.OrderID != "" {
		payload["order_id"] = fields.OrderID
	}
	if fields.StoreID != "" {
		payload["store_id"] = fields.StoreID
	}
	if fields.Step != "" {
		payload["step"] = fields.Step
	}
	if fields.Status != "" {
		payload["status"] = fields.Status
	}
	if fields.Error != "" {
		payload["error"] = fields.Error
	}
	if fields.Message != "" {
		payload["message"] = fields.Message
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("{\"service\":%q,\"status\":\"log_error\",\"error\":%q}", fields.Service, err.Error())
		return
	}
	log.Print(string(data))
}
