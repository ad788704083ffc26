package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/teashop/internal/db"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	GetVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]VariantInfo, error)
	// CreateOrder stores the order with its items and empties the owner's
	// cart in the same transaction.
	CreateOrder(ctx context.Context, order *Order) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `o.id, o.order_number, o.user_id,
	o.shipping_first_name, o.shipping_last_name, o.shipping_street, o.shipping_post_code, o.shipping_city, o.shipping_country,
	o.billing_same_as_shipping,
	o.billing_first_name, o.billing_last_name, o.billing_street, o.billing_post_code, o.billing_city, o.billing_country,
	o.email, o.payment_type, o.subtotal, o.delivery_cost, o.total, o.status, o.created_at, o.updated_at,
	u.id, u.email, u.name`

const orderFrom = ` FROM orders o JOIN users u ON u.id = o.user_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var u UserSummary
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&o.ShippingFirstName, &o.ShippingLastName, &o.ShippingStreet, &o.ShippingPostCode, &o.ShippingCity, &o.ShippingCountry,
		&o.BillingSameAsShipping,
		&o.BillingFirstName, &o.BillingLastName, &o.BillingStreet, &o.BillingPostCode, &o.BillingCity, &o.BillingCountry,
		&o.Email, &o.PaymentType, &o.Subtotal, &o.DeliveryCost, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&u.ID, &u.Email, &u.Name,
	)
	if err != nil {
		return nil, err
	}
	o.User = &u
	o.Items = make([]OrderItem, 0)
	return &o, nil
}

func (r *postgresRepository) GetVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]VariantInfo, error) {
	query := `
		SELECT v.id, v.product_id, p.name, v.weight, v.price
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query variants: %w", err)
	}
	defer rows.Close()

	variants := make(map[uuid.UUID]VariantInfo, len(ids))
	for rows.Next() {
		var v VariantInfo
		if err := rows.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.Weight, &v.Price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan variant: %w", err)
		}
		variants[v.ID] = v
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating variants: %w", err)
	}

	return variants, nil
}

func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order) (uuid.UUID, error) {
	finalOrderID := orderInput.ID
	if finalOrderID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			log.Error().Err(err).Msg("repository: failed to generate order ID")
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		finalOrderID = genID
	}

	createdAt := time.Now().UTC()

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		queryOrder := `
			INSERT INTO orders (id, order_number, user_id,
				shipping_first_name, shipping_last_name, shipping_street, shipping_post_code, shipping_city, shipping_country,
				billing_same_as_shipping,
				billing_first_name, billing_last_name, billing_street, billing_post_code, billing_city, billing_country,
				email, payment_type, subtotal, delivery_cost, total, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $23)
		`
		_, err := tx.Exec(ctx, queryOrder,
			finalOrderID, orderInput.OrderNumber, orderInput.UserID,
			orderInput.ShippingFirstName, orderInput.ShippingLastName, orderInput.ShippingStreet,
			orderInput.ShippingPostCode, orderInput.ShippingCity, orderInput.ShippingCountry,
			orderInput.BillingSameAsShipping,
			orderInput.BillingFirstName, orderInput.BillingLastName, orderInput.BillingStreet,
			orderInput.BillingPostCode, orderInput.BillingCity, orderInput.BillingCountry,
			orderInput.Email, orderInput.PaymentType,
			orderInput.Subtotal, orderInput.DeliveryCost, orderInput.Total,
			string(orderInput.Status), createdAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrOrderNumberTaken
			}
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange {
				return ErrAmountOutOfRange
			}
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}

		queryItem := `
			INSERT INTO order_items (id, order_id, product_id, variant_id, product_name, variant_weight, price, quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for i := range orderInput.Items {
			item := &orderInput.Items[i]

			itemID, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("repository: failed to generate order item ID: %w", err)
			}
			item.ID = itemID
			item.OrderID = finalOrderID
			item.CreatedAt = createdAt

			_, err = tx.Exec(ctx, queryItem,
				item.ID, item.OrderID, item.ProductID, item.VariantID,
				item.ProductName, item.VariantWeight, item.Price, item.Quantity, item.CreatedAt,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && (pgErr.Code == pgerrcode.CheckViolation || pgErr.Code == pgerrcode.NumericValueOutOfRange) {
					return ErrInvalidQuantity
				}
				return fmt.Errorf("repository: failed to insert order item for order %s: %w", finalOrderID, err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, orderInput.UserID); err != nil {
			return fmt.Errorf("repository: failed to clear cart for order %s: %w", finalOrderID, err)
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	orderInput.ID = finalOrderID
	orderInput.CreatedAt = createdAt
	orderInput.UpdatedAt = createdAt
	return finalOrderID, nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	if err := r.attachItems(ctx, map[uuid.UUID]*Order{order.ID: order}, []uuid.UUID{order.ID}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *postgresRepository) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + orderFrom + ` WHERE o.user_id = $1 ORDER BY o.created_at DESC`
	return r.queryOrders(ctx, query, userID)
}

func (r *postgresRepository) ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	var total int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE ($1::text IS NULL OR status = $1)`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + orderFrom + `
		WHERE ($1::text IS NULL OR o.status = $1)
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`
	orders, err := r.queryOrders(ctx, query, status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	orderRows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		order, err := scanOrder(orderRows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		ordersMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}
	if err = orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	if err := r.attachItems(ctx, ordersMap, orderIDs); err != nil {
		return nil, err
	}

	resultOrders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		resultOrders = append(resultOrders, *ordersMap[id])
	}

	return resultOrders, nil
}

func (r *postgresRepository) attachItems(ctx context.Context, ordersMap map[uuid.UUID]*Order, orderIDs []uuid.UUID) error {
	query := `
		SELECT id, order_id, product_id, variant_id, product_name, variant_weight, price, quantity, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at ASC, product_name ASC
	`
	itemRows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.ProductName,
			&item.VariantWeight,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to scan order item: %w", err)
		}

		if order, ok := ordersMap[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err = itemRows.Err(); err != nil {
		return fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}

	return nil
}
