package wifi

import (
	"strconv"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
)

// Radio bands.
const (
	Band24 = "2.4GHz"
	Band5  = "5GHz"
)

// Security modes.
const (
	SecurityOpen     = "open"
	SecurityWPA2     = "wpa2"
	SecurityWPA3     = "wpa3"
	SecurityWPA2WPA3 = "wpa2-wpa3"
)

// Profile is the WiFi configuration of one CPE radio. Channel 0 means automatic.
type Profile struct {
	DeviceID     string `json:"device_id" validate:"required"`
	DeviceName   string `json:"device_name"`
	CustomerID   string `json:"customer_id"`
	SSID         string `json:"ssid" validate:"required,max=32"`
	Password     string `json:"password" validate:"omitempty,min=8,max=63"`
	Band         string `json:"band" validate:"oneof=2.4GHz 5GHz"`
	Channel      int    `json:"channel" validate:"gte=0,lte=196"`
	ChannelWidth int    `json:"channel_width" validate:"oneof=20 40 80 160"`
	Security     string `json:"security" validate:"oneof=open wpa2 wpa3 wpa2-wpa3"`
	Hidden       bool   `json:"hidden"`
	Enabled      bool   `json:"enabled"`
	TxPower      int    `json:"tx_power" validate:"gte=1,lte=100"`
}

func deviceName(p Profile) string { return p.DeviceName }
func deviceID(p Profile) string   { return p.DeviceID }
func ssid(p Profile) string       { return p.SSID }
func band(p Profile) string       { return p.Band }
func security(p Profile) string   { return p.Security }
func enabled(p Profile) string    { return strconv.FormatBool(p.Enabled) }

// Schema is the WiFi profile list view. Passwords are never searchable.
func Schema() collection.Schema[Profile] {
	return collection.Schema[Profile]{
		Search: []collection.Field[Profile]{ssid, deviceName, deviceID},
		Filters: map[string]collection.Field[Profile]{
			"band":     band,
			"security": security,
			"enabled":  enabled,
		},
		Sorts: map[string]collection.Key[Profile]{
			"ssid":     collection.StringKey(ssid),
			"device":   collection.StringKey(deviceName),
			"band":     collection.OrdinalKey(band),
			"channel":  collection.NumberKey(func(p Profile) int { return p.Channel }),
			"tx_power": collection.NumberKey(func(p Profile) int { return p.TxPower }),
			"enabled":  collection.BoolKey(func(p Profile) bool { return p.Enabled }),
		},
		DefaultSort: "ssid",
		DefaultDir:  collection.Ascending,
		PageSize:    25,
	}
}

func exportColumns() []listing.Column[Profile] {
	return []listing.Column[Profile]{
		{Header: "device_id", Value: deviceID},
		{Header: "device_name", Value: deviceName},
		{Header: "ssid", Value: ssid},
		{Header: "band", Value: band},
		{Header: "channel", Value: func(p Profile) string { return strconv.Itoa(p.Channel) }},
		{Header: "channel_width", Value: func(p Profile) string { return strconv.Itoa(p.ChannelWidth) }},
		{Header: "security", Value: security},
		{Header: "hidden", Value: func(p Profile) string { return strconv.FormatBool(p.Hidden) }},
		{Header: "enabled", Value: enabled},
		{Header: "tx_power", Value: func(p Profile) string { return strconv.Itoa(p.TxPower) }},
	}
}
