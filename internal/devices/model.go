package devices

import (
	"strconv"
	"time"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
)

// Kind is the role of a device in the access network.
type Kind string

const (
	KindOLT Kind = "olt"
	KindONU Kind = "onu"
	KindCPE Kind = "cpe"
)

// Status is the reachability of a device as last reported by the gateway.
type Status string

const (
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
	StatusDegraded Status = "degraded"
)

// Device is one inventory entry: an OLT, ONU or CPE.
type Device struct {
	ID         string    `json:"id" validate:"required"`
	Serial     string    `json:"serial" validate:"required"`
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind" validate:"required,oneof=olt onu cpe"`
	Vendor     string    `json:"vendor"`
	Model      string    `json:"model"`
	IP         string    `json:"ip" validate:"omitempty,ip"`
	Status     Status    `json:"status" validate:"required,oneof=online offline degraded"`
	CustomerID string    `json:"customer_id,omitempty"`
	RxPower    float64   `json:"rx_power_dbm"`
	LastSeen   time.Time `json:"last_seen"`
}

func name(d Device) string     { return d.Name }
func serial(d Device) string   { return d.Serial }
func kind(d Device) string     { return string(d.Kind) }
func status(d Device) string   { return string(d.Status) }
func vendor(d Device) string   { return d.Vendor }
func model(d Device) string    { return d.Model }
func ip(d Device) string       { return d.IP }
func customer(d Device) string { return d.CustomerID }

// Schema is the device list view: search by name, serial, model, IP or
// customer; filter by kind, status and vendor.
func Schema() collection.Schema[Device] {
	return collection.Schema[Device]{
		Search: []collection.Field[Device]{name, serial, model, ip, customer},
		Filters: map[string]collection.Field[Device]{
			"kind":   kind,
			"status": status,
			"vendor": vendor,
		},
		Sorts: map[string]collection.Key[Device]{
			"name":      collection.StringKey(name),
			"serial":    collection.OrdinalKey(serial),
			"kind":      collection.StringKey(kind),
			"status":    collection.StringKey(status),
			"vendor":    collection.StringKey(vendor),
			"rx_power":  collection.NumberKey(func(d Device) float64 { return d.RxPower }),
			"last_seen": collection.TimeKey(func(d Device) time.Time { return d.LastSeen }),
		},
		DefaultSort: "name",
		DefaultDir:  collection.Ascending,
		PageSize:    25,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func exportColumns() []listing.Column[Device] {
	return []listing.Column[Device]{
		{Header: "id", Value: func(d Device) string { return d.ID }},
		{Header: "serial", Value: serial},
		{Header: "name", Value: name},
		{Header: "kind", Value: kind},
		{Header: "vendor", Value: vendor},
		{Header: "model", Value: model},
		{Header: "ip", Value: ip},
		{Header: "status", Value: status},
		{Header: "customer_id", Value: customer},
		{Header: "rx_power_dbm", Value: func(d Device) string { return strconv.FormatFloat(d.RxPower, 'f', 2, 64) }},
		{Header: "last_seen", Value: func(d Device) string { return formatTime(d.LastSeen) }},
	}
}
