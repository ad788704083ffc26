package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/teashop/internal/config"
	"github.com/vasiliy-maslov/teashop/internal/metrics"
)

var ErrForbidden = errors.New("access to order denied")

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	orderNumberAttempts = 3
)

type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, in CreateInput) (*Order, error)
	Quote(ctx context.Context, items []ItemInput) (*Quote, error)
	GetOrderByID(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, filter ListFilter) (*Page, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error)
}

type service struct {
	orderRepo         Repository
	deliveryCost      decimal.Decimal
	strictTransitions bool
	now               func() time.Time
}

func NewService(orderRepo Repository, cfg config.OrderConfig) Service {
	return &service{
		orderRepo:         orderRepo,
		deliveryCost:      cfg.DeliveryCost,
		strictTransitions: cfg.StrictTransitions,
		now:               time.Now,
	}
}

func (s *service) price(ctx context.Context, items []ItemInput) (Quote, []OrderItem, error) {
	if len(items) == 0 {
		return Quote{}, nil, ErrEmptyOrder
	}

	variants, err := s.orderRepo.GetVariants(ctx, variantIDs(items))
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load variants in repository")
		return Quote{}, nil, fmt.Errorf("failed to load variants: %w", err)
	}

	return Price(items, variants, s.deliveryCost)
}

func (s *service) Quote(ctx context.Context, items []ItemInput) (*Quote, error) {
	quote, _, err := s.price(ctx, items)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, in CreateInput) (*Order, error) {
	quote, items, err := s.price(ctx, in.Items)
	if err != nil {
		if errors.Is(err, ErrVariantNotFound) || errors.Is(err, ErrEmptyOrder) || errors.Is(err, ErrInvalidQuantity) || errors.Is(err, ErrAmountOutOfRange) {
			log.Warn().Err(err).Stringer("user_id", userID).Msg("service: rejected order")
		}
		return nil, err
	}

	order := &Order{
		UserID:                userID,
		BillingSameAsShipping: in.BillingSameAsShipping,
		Email:                 strings.TrimSpace(in.Email),
		PaymentType:           in.PaymentType,
		Subtotal:              quote.Subtotal,
		DeliveryCost:          quote.DeliveryCost,
		Total:                 quote.Total,
		Status:                StatusPending,
		Items:                 items,
	}
	order.setShipping(in.Shipping)
	if in.BillingSameAsShipping {
		order.setBilling(in.Shipping)
	} else {
		order.setBilling(in.Billing)
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = newOrderNumber(s.now())
		_, err = s.orderRepo.CreateOrder(ctx, order)
		if !errors.Is(err, ErrOrderNumberTaken) || attempt == orderNumberAttempts {
			break
		}
		log.Warn().Str("order_number", order.OrderNumber).Msg("service: order number collision, retrying")
	}
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	log.Info().Stringer("order_id", order.ID).Stringer("user_id", userID).Str("order_number", order.OrderNumber).Msg("service: order created")

	return order, nil
}

func (s *service) GetOrderByID(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("failed to fetch order by id: %w", err)
	}

	if !isAdmin && order.UserID != requesterID {
		log.Warn().Stringer("order_id", id).Stringer("user_id", requesterID).Msg("service: order requested by non-owner")
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, total, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &Page{Orders: orders, Total: total}, nil
}

// UpdateOrderStatus sets any valid status. With strict transitions enabled the
// move must follow allowedTransitions; setting the current status is a no-op.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	if s.strictTransitions {
		currentOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
				return nil, ErrOrderNotFound
			}
			log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for status update")
			return nil, fmt.Errorf("failed to get order for status update: %w", err)
		}

		if currentOrder.Status == newStatus {
			return currentOrder, nil
		}

		if !canTransition(currentOrder.Status, newStatus) {
			log.Warn().
				Stringer("order_id", orderID).
				Stringer("current_status", currentOrder.Status).
				Stringer("new_status", newStatus).
				Msg("service: invalid status transition attempt")
			return nil, fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: order status updated")

	updated, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to reload order after status update")
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return updated, nil
}
