package provisioning

import (
	"time"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
)

// ONU provisioning states.
const (
	StatusPending    = "pending"
	StatusAuthorized = "authorized"
	StatusFailed     = "failed"
)

// PendingONU is an ONU discovered on a PON port that has not been provisioned.
type PendingONU struct {
	Serial     string    `json:"serial" validate:"required"`
	OLTID      string    `json:"olt_id" validate:"required"`
	OLTName    string    `json:"olt_name"`
	PONPort    string    `json:"pon_port"`
	Model      string    `json:"model"`
	Status     string    `json:"status" validate:"required,oneof=pending authorized failed"`
	DetectedAt time.Time `json:"detected_at"`
}

// AuthorizeRequest binds a pending ONU to a service profile and customer.
type AuthorizeRequest struct {
	Profile    string `json:"profile" validate:"required,max=64"`
	CustomerID string `json:"customer_id" validate:"required,max=64"`
	VLAN       int    `json:"vlan,omitempty" validate:"omitempty,gte=1,lte=4094"`
	Note       string `json:"note,omitempty" validate:"max=500"`
}

func serial(o PendingONU) string  { return o.Serial }
func oltName(o PendingONU) string { return o.OLTName }
func oltID(o PendingONU) string   { return o.OLTID }
func port(o PendingONU) string    { return o.PONPort }
func model(o PendingONU) string   { return o.Model }
func status(o PendingONU) string  { return o.Status }

// Schema is the pending ONU list view.
func Schema() collection.Schema[PendingONU] {
	return collection.Schema[PendingONU]{
		Search: []collection.Field[PendingONU]{serial, model, oltName, port},
		Filters: map[string]collection.Field[PendingONU]{
			"status": status,
			"olt":    oltID,
		},
		Sorts: map[string]collection.Key[PendingONU]{
			"serial":      collection.OrdinalKey(serial),
			"olt":         collection.StringKey(oltName),
			"port":        collection.OrdinalKey(port),
			"status":      collection.StringKey(status),
			"detected_at": collection.TimeKey(func(o PendingONU) time.Time { return o.DetectedAt }),
		},
		DefaultSort: "detected_at",
		DefaultDir:  collection.Descending,
		PageSize:    10,
	}
}

func exportColumns() []listing.Column[PendingONU] {
	return []listing.Column[PendingONU]{
		{Header: "serial", Value: serial},
		{Header: "olt_id", Value: oltID},
		{Header: "olt_name", Value: oltName},
		{Header: "pon_port", Value: port},
		{Header: "model", Value: model},
		{Header: "status", Value: status},
		{Header: "detected_at", Value: func(o PendingONU) string { return o.DetectedAt.UTC().Format(time.RFC3339) }},
	}
}
