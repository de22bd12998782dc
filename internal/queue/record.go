package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// jobRecord is the persisted JSON shape of a Job.
type jobRecord struct {
	Items       []itemRecord `json:"items"`
	CurrentIdx  int          `json:"currentIdx"`
	AutoEnhance bool         `json:"autoEnhance"`
}

type itemRecord struct {
	SourceURI string  `json:"sourceUri"`
	Status    string  `json:"status"`
	PDFPath   *string `json:"pdfPath"`
	Error     *string `json:"error"`
}

// EncodeJob serializes a job into its persisted record.
func EncodeJob(job *Job) ([]byte, error) {
	if job == nil {
		return nil, fmt.Errorf("encode job: job is nil")
	}
	record := jobRecord{
		Items:       make([]itemRecord, 0, len(job.Items)),
		CurrentIdx:  job.Cursor,
		AutoEnhance: job.AutoEnhance,
	}
	for _, item := range job.Items {
		record.Items = append(record.Items, itemRecord{
			SourceURI: item.SourceRef,
			Status:    string(item.Status),
			PDFPath:   optionalString(item.OutputRef),
			Error:     optionalString(item.Error),
		})
	}
	return json.Marshal(record)
}

// DecodeJob parses and validates a persisted record. Any structural problem
// is reported as ErrCorruptedJob.
func DecodeJob(data []byte) (*Job, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, corrupted("record is not an object")
	}

	rawItems, ok := fields["items"]
	if !ok || !isJSONArray(rawItems) {
		return nil, corrupted("items is not an array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, corrupted("items is not an array")
	}

	rawCursor, ok := fields["currentIdx"]
	if !ok {
		return nil, corrupted("currentIdx is missing")
	}
	var cursor float64
	if err := json.Unmarshal(rawCursor, &cursor); err != nil {
		return nil, corrupted("currentIdx is not a number")
	}
	if cursor != math.Trunc(cursor) {
		return nil, corrupted("currentIdx is not an integer")
	}

	job := &Job{Cursor: int(cursor), AutoEnhance: true, Items: make([]Item, 0, len(items))}
	if rawAuto, ok := fields["autoEnhance"]; ok && !isJSONNull(rawAuto) {
		if err := json.Unmarshal(rawAuto, &job.AutoEnhance); err != nil {
			return nil, corrupted("autoEnhance is not a boolean")
		}
	}

	for idx, raw := range items {
		var rec itemRecord
		if err := json.Unmarshal(raw, &rec); err != nil || isJSONNull(raw) {
			return nil, corrupted(fmt.Sprintf("item %d is malformed", idx))
		}
		if rec.SourceURI == "" {
			return nil, corrupted(fmt.Sprintf("item %d has no sourceUri", idx))
		}
		status, ok := ParseStatus(rec.Status)
		if !ok {
			return nil, corrupted(fmt.Sprintf("item %d has unknown status %q", idx, rec.Status))
		}
		job.Items = append(job.Items, Item{
			SourceRef: rec.SourceURI,
			Status:    status,
			OutputRef: derefString(rec.PDFPath),
			Error:     derefString(rec.Error),
		})
	}

	if err := job.Validate(); err != nil {
		return nil, corrupted(err.Error())
	}
	return job, nil
}

func corrupted(reason string) error {
	return fmt.Errorf("%w: %s", ErrCorruptedJob, reason)
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
