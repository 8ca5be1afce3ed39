package order

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var validStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Cancellable reports whether Cancel may run from this status.
// Delivered and already-cancelled orders are terminal for cancellation.
func (s Status) Cancellable() bool {
	return s != StatusDelivered && s != StatusCancelled
}

// AddressMutable reports whether the shipping address may still change.
func (s Status) AddressMutable() bool {
	return s != StatusShipped && s != StatusDelivered
}
