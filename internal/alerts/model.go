package alerts

import (
	"time"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
)

// Alert severities, most severe first.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityInfo     = "info"
)

// Alert lifecycle states.
const (
	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// Alert is a network event raised against a device.
type Alert struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Severity   string    `json:"severity"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	Status     string    `json:"status"`
	RaisedAt   time.Time `json:"raised_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RaiseRequest creates a new alert.
type RaiseRequest struct {
	DeviceID   string `json:"device_id" validate:"required,max=64"`
	DeviceName string `json:"device_name" validate:"max=200"`
	Severity   string `json:"severity" validate:"required,oneof=critical major minor info"`
	Category   string `json:"category" validate:"max=64"`
	Message    string `json:"message" validate:"required,max=1000"`
}

var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityMajor:    1,
	SeverityMinor:    2,
	SeverityInfo:     3,
}

func rank(a Alert) int {
	if r, ok := severityRank[a.Severity]; ok {
		return r
	}
	return len(severityRank)
}

func device(a Alert) string   { return a.DeviceName }
func deviceID(a Alert) string { return a.DeviceID }
func message(a Alert) string  { return a.Message }
func category(a Alert) string { return a.Category }
func severity(a Alert) string { return a.Severity }
func status(a Alert) string   { return a.Status }

// Schema is the alert list view. Severity sorts by rank, so ascending puts
// critical alerts first.
func Schema() collection.Schema[Alert] {
	return collection.Schema[Alert]{
		Search: []collection.Field[Alert]{device, deviceID, message, category},
		Filters: map[string]collection.Field[Alert]{
			"severity": severity,
			"status":   status,
			"category": category,
		},
		Sorts: map[string]collection.Key[Alert]{
			"severity":  collection.NumberKey(rank),
			"device":    collection.StringKey(device),
			"category":  collection.StringKey(category),
			"status":    collection.StringKey(status),
			"raised_at": collection.TimeKey(func(a Alert) time.Time { return a.RaisedAt }),
		},
		DefaultSort: "raised_at",
		DefaultDir:  collection.Descending,
		PageSize:    20,
	}
}

func exportColumns() []listing.Column[Alert] {
	return []listing.Column[Alert]{
		{Header: "id", Value: func(a Alert) string { return a.ID }},
		{Header: "device_id", Value: deviceID},
		{Header: "device_name", Value: device},
		{Header: "severity", Value: severity},
		{Header: "category", Value: category},
		{Header: "status", Value: status},
		{Header: "message", Value: message},
		{Header: "raised_at", Value: func(a Alert) string { return a.RaisedAt.UTC().Format(time.RFC3339) }},
	}
}
