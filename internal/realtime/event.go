// Package realtime delivers row change events to subscribers keyed by table
// and an optional column filter. Events identify what changed, never the new
// row contents; subscribers re-fetch.
package realtime

import (
	"context"
	"time"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

const (
	TablePurchaseRequests = "purchase_requests"
	TableNotifications    = "notifications"
	TableComments         = "comments"
	TableIdeas            = "ideas"
)

type Event struct {
	Table   string            `json:"table"`
	Op      Op                `json:"op"`
	RowID   string            `json:"row_id"`
	Columns map[string]string `json:"columns,omitempty"`
	At      time.Time         `json:"at"`
}

func NewEvent(table string, op Op, rowID string, columns map[string]string) Event {
	return Event{Table: table, Op: op, RowID: rowID, Columns: columns, At: time.Now().UTC()}
}

// Filter is an equality predicate on one column. The zero Filter matches
// every row; Column "id" matches the row id.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (f Filter) Matches(e Event) bool {
	if f.Column == "" {
		return true
	}
	if f.Column == "id" {
		return e.RowID == f.Value
	}
	v, ok := e.Columns[f.Column]
	return ok && v == f.Value
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Broker interface {
	Publisher
	Subscribe(ctx context.Context, table string, filter Filter) (*Subscription, error)
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
