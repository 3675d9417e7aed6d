package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, stock, price, image
		FROM products
		ORDER BY name, product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	for i := range products {
		categories, err := loadProductCategories(ctx, r.db, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Categories = categories
	}

	return products, nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, tx dbtx, id string) (domain.Product, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT product_id, name, stock, price, image
		FROM products
		WHERE product_id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, err
	}

	categories, err := loadProductCategories(ctx, tx, id)
	if err != nil {
		return domain.Product{}, err
	}
	product.Categories = categories

	return product, nil
}

func (r *productRepository) Create(ctx context.Context, in domain.CreateProduct) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (product_id, name, stock, price) VALUES ($1, $2, $3, $4)
	`, id, in.Name, in.Stock, in.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.ErrProductExists
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	if err = linkCategories(ctx, tx, id, in.Categories); err != nil {
		return domain.Product{}, err
	}

	var product domain.Product
	if product, err = getProduct(ctx, tx, id); err != nil {
		return domain.Product{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, fmt.Errorf("commit create product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Update(ctx context.Context, id string, in domain.UpdateProduct) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE products
		SET name = COALESCE($1, name),
		    stock = COALESCE($2, stock),
		    price = COALESCE($3, price)
		WHERE product_id = $4
	`, in.Name, in.Stock, in.Price, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.ErrProductExists
		}
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return domain.Product{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrProductNotFound
		return domain.Product{}, err
	}

	// Categories != nil заменяет набор связей целиком.
	if in.Categories != nil {
		if _, err = tx.ExecContext(ctx, `
			DELETE FROM product_categories WHERE product_id = $1
		`, id); err != nil {
			return domain.Product{}, fmt.Errorf("unlink categories: %w", err)
		}
		if err = linkCategories(ctx, tx, id, *in.Categories); err != nil {
			return domain.Product{}, err
		}
	}

	var product domain.Product
	if product, err = getProduct(ctx, tx, id); err != nil {
		return domain.Product{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, fmt.Errorf("commit update product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *productRepository) SetImage(ctx context.Context, id string, url *string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET image = $1 WHERE product_id = $2
	`, url, id)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product domain.Product
		image   sql.NullString
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Stock, &product.Price, &image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if image.Valid {
		url := image.String
		product.Image = &url
	}
	return product, nil
}

func loadProductCategories(ctx context.Context, tx dbtx, productID string) ([]domain.Category, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.category_id, c.name
		FROM categories c
		JOIN product_categories pc ON c.category_id = pc.category_id
		WHERE pc.product_id = $1
		ORDER BY c.name
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("scan product category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product categories: %w", err)
	}

	return categories, nil
}

func linkCategories(ctx context.Context, tx dbtx, productID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_categories (product_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, productID, categoryID); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrCategoryNotFound
			}
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
