package orders

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusRefunded       Status = "REFUNDED"
)

// Actor identifies who is attempting a transition. The same edge can be legal
// for one actor and not another (only the payment webhook confirms payment).
type Actor string

const (
	ActorWebhook Actor = "webhook"
	ActorVendor  Actor = "vendor"
	ActorAdmin   Actor = "admin"
)

var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {StatusPending: true, StatusCancelled: true},
	StatusPending:        {StatusProcessing: true, StatusCancelled: true, StatusRefunded: true},
	StatusProcessing:     {StatusShipped: true, StatusCancelled: true, StatusRefunded: true},
	StatusShipped:        {StatusDelivered: true},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// AllowedBy restricts CanTransition per actor: the webhook only settles
// payment, vendors move fulfillment forward and may cancel, admins may also
// refund.
func AllowedBy(actor Actor, from, to Status) bool {
	if !CanTransition(from, to) {
		return false
	}
	switch actor {
	case ActorWebhook:
		return from == StatusPendingPayment
	case ActorVendor:
		return to != StatusRefunded && !(from == StatusPendingPayment && to == StatusPending)
	case ActorAdmin:
		return !(from == StatusPendingPayment && to == StatusPending)
	}
	return false
}

// Restocks reports whether a transition returns held stock to the shelf.
func Restocks(to Status) bool {
	return to == StatusCancelled || to == StatusRefunded
}
