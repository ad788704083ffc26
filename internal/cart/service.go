package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/teashop/internal/metrics"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// MaxQuantity caps a single cart line, including the sum of merged adds.
const MaxQuantity = 1000

type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddToCart(ctx context.Context, userID, productID, variantID uuid.UUID, quantity int) (*Line, error)
	// UpdateCartItem sets the quantity of a line. Zero removes the line and
	// returns (nil, nil).
	UpdateCartItem(ctx context.Context, userID, id uuid.UUID, quantity int) (*Line, error)
	RemoveFromCart(ctx context.Context, userID, id uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list cart in repository")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return newCart(lines), nil
}

func (s *service) AddToCart(ctx context.Context, userID, productID, variantID uuid.UUID, quantity int) (*Line, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	id, err := s.repo.AddOrIncrement(ctx, userID, productID, variantID, quantity)
	if err != nil {
		if errors.Is(err, ErrVariantNotFound) {
			log.Warn().Stringer("product_id", productID).Stringer("variant_id", variantID).Msg("service: add to cart for unknown variant")
			return nil, ErrVariantNotFound
		}
		if errors.Is(err, ErrInvalidQuantity) {
			log.Warn().Stringer("variant_id", variantID).Int("quantity", quantity).Msg("service: merged cart quantity out of range")
			return nil, ErrInvalidQuantity
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to add to cart in repository")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	metrics.CartLinesAdded.Inc()

	line, err := s.repo.GetLine(ctx, userID, id)
	if err != nil {
		log.Error().Err(err).Stringer("cart_item_id", id).Msg("service: failed to load cart item after upsert")
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}

	return line, nil
}

func (s *service) UpdateCartItem(ctx context.Context, userID, id uuid.UUID, quantity int) (*Line, error) {
	if quantity < 0 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil, s.RemoveFromCart(ctx, userID, id)
	}

	if err := s.repo.UpdateQuantity(ctx, userID, id, quantity); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidQuantity) {
			return nil, err
		}
		log.Error().Err(err).Stringer("cart_item_id", id).Msg("service: failed to update cart item in repository")
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	line, err := s.repo.GetLine(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("cart_item_id", id).Msg("service: failed to load cart item after update")
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}

	return line, nil
}

func (s *service) RemoveFromCart(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Stringer("cart_item_id", id).Msg("service: failed to delete cart item in repository")
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart in repository")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
