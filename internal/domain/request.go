package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RequestKind selects which engine operation a request runs.
type RequestKind string

const (
	KindFiles    RequestKind = "files"
	KindForecast RequestKind = "forecast"
	KindTRT      RequestKind = "trt"
)

// RawMessage is an unprocessed message from the request topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// LocateRequest asks the engine for archive files, a forecast file, or TRT
// cell files. Which fields apply depends on Kind.
type LocateRequest struct {
	ID         string      `json:"id"`
	Kind       RequestKind `json:"kind"`
	Descriptor string      `json:"descriptor,omitempty"`
	Start      time.Time   `json:"start,omitzero"`
	End        time.Time   `json:"end,omitzero"`
	Scan       string      `json:"scan,omitempty"`

	// Forecast requests.
	ModelKind  string    `json:"model_kind,omitempty"`
	ValidTime  time.Time `json:"valid_time,omitzero"`
	DataType   string    `json:"data_type,omitempty"`
	RadarIndex int       `json:"radar_index,omitempty"`
}

// LocateResult is the serialized answer destined for the result topic.
type LocateResult struct {
	ID          string       `json:"id"`
	Kind        RequestKind  `json:"kind"`
	Files       []string     `json:"files,omitempty"`
	Skipped     []Skip       `json:"skipped,omitempty"`
	Cancelled   bool         `json:"cancelled,omitempty"`
	Path        string       `json:"path,omitempty"`
	Run         *ForecastRun `json:"run,omitempty"`
	Error       string       `json:"error,omitempty"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// ParseLocateRequest decodes a request message. Requests without an id get a
// deterministic one derived from the payload so replays map to the same result key.
func ParseLocateRequest(raw RawMessage) (LocateRequest, error) {
	var req LocateRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return LocateRequest{}, fmt.Errorf("parse locate request: %w", err)
	}
	switch req.Kind {
	case KindFiles, KindForecast, KindTRT:
	default:
		return LocateRequest{}, fmt.Errorf("parse locate request: unknown kind %q", req.Kind)
	}
	if req.ID == "" {
		if len(raw.Key) > 0 {
			req.ID = string(raw.Key)
		} else {
			req.ID = generateID(req.Kind, raw.Value)
		}
	}
	return req, nil
}

func generateID(kind RequestKind, payload []byte) string {
	hash := sha256.Sum256(payload)
	return string(kind) + "-" + hex.EncodeToString(hash[:8])
}
