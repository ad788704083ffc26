package order

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusPaid: {
		StatusPacking:   true,
		StatusCancelled: true,
	},
	StatusPacking: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

func canTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

// newOrderNumber formats ORD-<unix millis>-<000..999>.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), rand.IntN(1000))
}
