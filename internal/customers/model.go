package customers

import (
	"strconv"
	"time"

	"github.com/nocdesk/nocdesk/internal/collection"
	"github.com/nocdesk/nocdesk/internal/listing"
)

// Customer is a subscriber account.
type Customer struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Plan        string    `json:"plan"`
	Status      string    `json:"status" validate:"required,oneof=active suspended inactive"`
	DeviceCount int       `json:"device_count" validate:"gte=0"`
	CreatedAt   time.Time `json:"created_at"`
}

func name(c Customer) string    { return c.Name }
func email(c Customer) string   { return c.Email }
func phone(c Customer) string   { return c.Phone }
func address(c Customer) string { return c.Address }
func plan(c Customer) string    { return c.Plan }
func status(c Customer) string  { return c.Status }

// Schema is the customer list view.
func Schema() collection.Schema[Customer] {
	return collection.Schema[Customer]{
		Search: []collection.Field[Customer]{name, email, phone, address},
		Filters: map[string]collection.Field[Customer]{
			"status": status,
			"plan":   plan,
		},
		Sorts: map[string]collection.Key[Customer]{
			"name":         collection.StringKey(name),
			"plan":         collection.StringKey(plan),
			"status":       collection.StringKey(status),
			"device_count": collection.NumberKey(func(c Customer) int { return c.DeviceCount }),
			"created_at":   collection.TimeKey(func(c Customer) time.Time { return c.CreatedAt }),
		},
		DefaultSort: "name",
		DefaultDir:  collection.Ascending,
		PageSize:    10,
	}
}

func exportColumns() []listing.Column[Customer] {
	return []listing.Column[Customer]{
		{Header: "id", Value: func(c Customer) string { return c.ID }},
		{Header: "name", Value: name},
		{Header: "email", Value: email},
		{Header: "phone", Value: phone},
		{Header: "address", Value: address},
		{Header: "plan", Value: plan},
		{Header: "status", Value: status},
		{Header: "device_count", Value: func(c Customer) string { return strconv.Itoa(c.DeviceCount) }},
		{Header: "created_at", Value: func(c Customer) string { return c.CreatedAt.UTC().Format(time.RFC3339) }},
	}
}
