package checkout

const (
	TopicOrderCreated         = "order.created"
	TopicPaymentSubmitted     = "order.payment.submitted"
	TopicPaymentNotifications = "payment.notifications"
	TopicOrderFulfilled       = "order.fulfilled"
)

// Partition key = order id, so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
