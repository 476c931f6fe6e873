package orders

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderPaid          = "order.paid"
	TopicOrderPaymentFailed = "order.payment.failed"
	TopicOrderStatusChanged = "order.status.changed"
	TopicOrderExpired       = "order.expired"
)
