package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/TvixT/simple-mart/internal/db"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, Page, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	Stats(ctx context.Context) (ProductStats, error)

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type repo struct {
	q db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repo{q: q}
}

const productColumns = `p.id, p.name, p.description, p.price, p.stock, p.image_url, p.category_id,
		COALESCE(c.name, ''), p.created_at, p.updated_at`

func (r *repo) Create(ctx context.Context, p *Product) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, image_url, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.CategoryID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.q.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.CategoryID, &p.CategoryName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

var productSortFields = map[string]string{
	"name":       "p.name",
	"price":      "p.price",
	"stock":      "p.stock",
	"created_at": "p.created_at",
}

func (r *repo) List(ctx context.Context, filter ProductFilter) ([]Product, Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	where := []string{"1=1"}
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.CategoryID != "" {
		where = append(where, "p.category_id = "+addArg(filter.CategoryID))
	}
	if filter.Search != "" {
		ph := addArg("%" + filter.Search + "%")
		where = append(where, "(p.name ILIKE "+ph+" OR p.description ILIKE "+ph+")")
	}
	if filter.MinPrice != nil {
		where = append(where, "p.price >= "+addArg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "p.price <= "+addArg(*filter.MaxPrice))
	}
	if filter.InStockOnly {
		where = append(where, "p.stock > 0")
	}

	whereClause := strings.Join(where, " AND ")

	sortField, ok := productSortFields[filter.SortBy]
	if !ok {
		sortField = "p.created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	var total int
	countArgs := append([]any(nil), args...)
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM products p WHERE `+whereClause, countArgs...,
	).Scan(&total); err != nil {
		return nil, Page{}, fmt.Errorf("count products: %w", err)
	}

	limit := addArg(filter.PageSize)
	offset := addArg((filter.Page - 1) * filter.PageSize)

	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE `+whereClause+`
		ORDER BY `+sortField+` `+direction+`
		LIMIT `+limit+` OFFSET `+offset,
		args...)
	if err != nil {
		return nil, Page{}, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, Page{}, err
	}

	return products, NewPage(filter.Page, filter.PageSize, total), nil
}

func (r *repo) Update(ctx context.Context, p *Product) error {
	err := r.q.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, image_url = $6,
		    category_id = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.CategoryID).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.stock <= $1
		ORDER BY p.stock ASC
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("select low stock products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *repo) Stats(ctx context.Context) (ProductStats, error) {
	var s ProductStats
	err := r.q.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stock > 0),
			COUNT(*) FILTER (WHERE stock = 0),
			COALESCE(AVG(price), 0),
			COALESCE(SUM(stock), 0)
		FROM products
	`).Scan(&s.TotalProducts, &s.InStockProducts, &s.OutOfStockProducts, &s.AveragePrice, &s.TotalStock)
	if err != nil {
		return ProductStats{}, fmt.Errorf("select product stats: %w", err)
	}
	return s, nil
}

func (r *repo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, c.Name, c.Description).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *repo) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := r.q.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

func (r *repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repo) UpdateCategory(ctx context.Context, c *Category) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE categories SET name = $2, description = $3 WHERE id = $1
	`, c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repo) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
			&p.CategoryID, &p.CategoryName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
