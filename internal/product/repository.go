package product

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
	"github.com/vasiliy-maslov/teashop/internal/db"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrSlugExists = errors.New("product with this slug already exists")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, slug, description, category, origin, flavor, caffeine, organic, vegan,
	allergens, qualities, ingredients, image_url, brewing_info, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.Origin,
		&p.Flavor,
		&p.Caffeine,
		&p.Organic,
		&p.Vegan,
		&p.Allergens,
		&p.Qualities,
		&p.Ingredients,
		&p.ImageURL,
		&p.BrewingInfo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Variants = make([]Variant, 0)
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	productsMap := make(map[uuid.UUID]*Product)
	var productIDs []uuid.UUID

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		productsMap[p.ID] = p
		productIDs = append(productIDs, p.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}

	if len(productIDs) == 0 {
		return []Product{}, nil
	}

	variants, err := r.variantsFor(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if p, ok := productsMap[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}

	result := make([]Product, 0, len(productIDs))
	for _, id := range productIDs {
		result = append(result, *productsMap[id])
	}

	return result, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %v: %w", arg, err)
	}

	variants, err := r.variantsFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Variants = append(p.Variants, variants...)

	return p, nil
}

func (r *postgresRepository) variantsFor(ctx context.Context, productIDs []uuid.UUID) ([]Variant, error) {
	query := `
		SELECT id, product_id, weight, price, stock
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY price ASC, weight ASC
	`
	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product variants: %w", err)
	}
	defer rows.Close()

	variants := make([]Variant, 0)
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Weight, &v.Price, &v.Stock); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating product variants: %w", err)
	}

	return variants, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product id: %w", err)
		}
		p.ID = id
	}
	now := time.Now().UTC()

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (id, name, slug, description, category, origin, flavor, caffeine, organic, vegan,
				allergens, qualities, ingredients, image_url, brewing_info, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`
		_, err := tx.Exec(ctx, query,
			p.ID, p.Name, p.Slug, p.Description, p.Category, p.Origin, p.Flavor, p.Caffeine,
			p.Organic, p.Vegan, p.Allergens, p.Qualities, p.Ingredients, p.ImageURL, p.BrewingInfo,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert product: %w", err)
		}

		return insertVariants(ctx, tx, p)
	})
	if err != nil {
		return translateWriteError(err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// Update overwrites product fields and replaces its variants wholesale.
func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	now := time.Now().UTC()

	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE products
			SET name = $2, slug = $3, description = $4, category = $5, origin = $6, flavor = $7,
				caffeine = $8, organic = $9, vegan = $10, allergens = $11, qualities = $12,
				ingredients = $13, image_url = $14, brewing_info = $15, updated_at = $16
			WHERE id = $1
			RETURNING created_at
		`
		err := tx.QueryRow(ctx, query,
			p.ID, p.Name, p.Slug, p.Description, p.Category, p.Origin, p.Flavor, p.Caffeine,
			p.Organic, p.Vegan, p.Allergens, p.Qualities, p.Ingredients, p.ImageURL, p.BrewingInfo,
			now,
		).Scan(&p.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("repository: failed to delete variants of product %s: %w", p.ID, err)
		}

		return insertVariants(ctx, tx, p)
	})
	if err != nil {
		return translateWriteError(err)
	}

	p.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, p *Product) error {
	query := `
		INSERT INTO product_variants (id, product_id, weight, price, stock)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range p.Variants {
		v := &p.Variants[i]
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate variant id: %w", err)
		}
		v.ID = id
		v.ProductID = p.ID

		if _, err := tx.Exec(ctx, query, v.ID, v.ProductID, v.Weight, v.Price, v.Stock); err != nil {
			return fmt.Errorf("repository: failed to insert variant for product %s: %w", p.ID, err)
		}
	}
	return nil
}

func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrSlugExists
	}
	return err
}
