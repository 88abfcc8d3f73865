package orders

import "strconv"

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentNotified    = "payment.notified"
)

// Partition key = order id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
