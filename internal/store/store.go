package store

import (
	"context"
	"fmt"
)

// Key is a semantic state-store key. Call sites never build raw strings, so a
// storage-format change stays inside this package.
type Key string

// Store is the durable client-state repository: sessions, carts, orders and
// notification feeds, each stored as one JSON document per key.
type Store interface {
	// Get unmarshals the value into dest and reports whether the key existed.
	Get(ctx context.Context, key Key, dest any) (bool, error)
	Set(ctx context.Context, key Key, value any) error
	Delete(ctx context.Context, key Key) error
	Close() error
}

// UserScope and GuestScope name the two mutually exclusive cart partitions.
// Logging in or out swaps the active partition; it never merges them.
func UserScope(run string) string {
	return "user:" + run
}

func GuestScope(id string) string {
	return "guest:" + id
}

func SessionKey(run string) Key {
	return Key("session:" + run)
}

func CartKey(scope string) Key {
	return Key("cart:" + scope)
}

func LastOrderKey(scope string) Key {
	return Key("order:last:" + scope)
}

func OrderKey(id int64) Key {
	return Key(fmt.Sprintf("order:%d", id))
}

func OrderHistoryKey(scope string) Key {
	return Key("orders:history:" + scope)
}

// OrdersIndexKey lists every committed order id, for the back-office view.
const OrdersIndexKey = Key("orders:index")

func NotificationsKey(scope string) Key {
	return Key("notifications:" + scope)
}
