package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("cart item not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

type Repository interface {
	// AddOrIncrement inserts a line or adds quantity to the existing one for the
	// same (user, product, variant) and returns the line id.
	AddOrIncrement(ctx context.Context, userID, productID, variantID uuid.UUID, quantity int) (uuid.UUID, error)
	GetLine(ctx context.Context, userID, id uuid.UUID) (*Line, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error)
	UpdateQuantity(ctx context.Context, userID, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

const lineSelect = `
	SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.created_at, ci.updated_at,
		p.id, p.name, p.slug, p.category, p.image_url,
		v.id, v.weight, v.price, v.stock
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	JOIN product_variants v ON v.id = ci.variant_id
`

const quantityRangeConstraint = "cart_items_quantity_range"

// isQuantityOutOfRange reports a line quantity rejected by the range check or
// by integer overflow of a merged add.
func isQuantityOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.NumericValueOutOfRange ||
		(pgErr.Code == pgerrcode.CheckViolation && pgErr.ConstraintName == quantityRangeConstraint)
}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.VariantID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt,
		&l.Product.ID, &l.Product.Name, &l.Product.Slug, &l.Product.Category, &l.Product.ImageURL,
		&l.Variant.ID, &l.Variant.Weight, &l.Variant.Price, &l.Variant.Stock,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) AddOrIncrement(ctx context.Context, userID, productID, variantID uuid.UUID, quantity int) (uuid.UUID, error) {
	newID, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate cart item id: %w", err)
	}

	// The SELECT yields no row when the variant does not belong to the product,
	// so nothing is inserted and RETURNING is empty.
	query := `
		INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity, created_at, updated_at)
		SELECT $1, $2, v.product_id, v.id, $5, now(), now()
		FROM product_variants v
		WHERE v.id = $4 AND v.product_id = $3
		ON CONFLICT ON CONSTRAINT cart_items_user_product_variant_key
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id
	`
	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, newID, userID, productID, variantID, quantity).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrVariantNotFound
		}
		if isQuantityOutOfRange(err) {
			return uuid.Nil, ErrInvalidQuantity
		}
		return uuid.Nil, fmt.Errorf("repository: failed to upsert cart item: %w", err)
	}

	return id, nil
}

func (r *postgresRepository) GetLine(ctx context.Context, userID, id uuid.UUID) (*Line, error) {
	l, err := scanLine(r.db.QueryRow(ctx, lineSelect+` WHERE ci.id = $1 AND ci.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item %s: %w", id, err)
	}
	return l, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	rows, err := r.db.Query(ctx, lineSelect+` WHERE ci.user_id = $1 ORDER BY ci.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart of user %s: %w", userID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		lines = append(lines, *l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart items: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) UpdateQuantity(ctx context.Context, userID, id uuid.UUID, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3, updated_at = now() WHERE id = $1 AND user_id = $2`
	cmdTag, err := r.db.Exec(ctx, query, id, userID, quantity)
	if err != nil {
		if isQuantityOutOfRange(err) {
			return ErrInvalidQuantity
		}
		return fmt.Errorf("repository: failed to update cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart of user %s: %w", userID, err)
	}
	return nil
}
