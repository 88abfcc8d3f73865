package redisx

import (
	"fmt"
	"time"
)

const (
	// Records: product:{id}, order:{id} -> JSON document
	PrefixProduct = "product:"
	PrefixOrder   = "order:"
	KeyProduct    = PrefixProduct + "%d"
	KeyOrder      = PrefixOrder + "%d"

	// Monotonic id counters (INCR)
	KeyProductCounter = "product_counter"
	KeyOrderCounter   = "order_counter"

	// Singleton store settings
	KeySettings = "store_settings"

	// Address lookup cache: cep:{8 digits} -> JSON address
	KeyPostalCode = "cep:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLPostalCode = 24 * time.Hour
	TTLDedup      = 48 * time.Hour
)

func ProductKey(id int64) string { return fmt.Sprintf(KeyProduct, id) }

func OrderKey(id int64) string { return fmt.Sprintf(KeyOrder, id) }
