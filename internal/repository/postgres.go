package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"
	"markethub/marketplace/internal/schema"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// RunAtomic executes fn within a transaction. Repository calls made with the
// ctx passed to fn run on that transaction.
func (r *PostgresRepository) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// no-op after a successful commit
	defer tx.Rollback(ctx)

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type txKey struct{}

func (r *PostgresRepository) getExecutor(ctx context.Context) PgxExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

// PgxExecutor is an interface that matches both *pgxpool.Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresRepository) InsertUser(ctx context.Context, u model.User) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, user_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.UserType), u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return &UniqueViolation{Collection: schema.Users, Field: "email", Value: u.Email}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertService(ctx context.Context, s model.Service) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO services (id, provider_id, title, description, category, price, location, icon, rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.ProviderID, s.Title, s.Description, s.Category, s.Price, s.Location, s.Icon, s.Rating, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertProduct(ctx context.Context, p model.Product) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO products (id, seller_id, title, description, category, price, file_type, file_url, icon, rating, downloads, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.SellerID, p.Title, p.Description, p.Category, p.Price, p.FileType, p.FileURL, p.Icon, p.Rating, p.Downloads, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO bookings (id, customer_id, service_id, booking_date, booking_time, notes, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.CustomerID, b.ServiceID, b.BookingDate, b.BookingTime, b.Notes, b.Status, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// InsertPurchase increments downloads in SQL so concurrent purchases never
// lose an update.
func (r *PostgresRepository) InsertPurchase(ctx context.Context, p model.Purchase) error {
	return r.RunAtomic(ctx, func(ctx context.Context) error {
		tag, err := r.getExecutor(ctx).Exec(ctx,
			"UPDATE products SET downloads = downloads + 1 WHERE id = $1", p.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update product downloads: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", p.ProductID, ErrNotFound)
		}

		_, err = r.getExecutor(ctx).Exec(ctx,
			`INSERT INTO purchases (id, customer_id, product_id, payment_method, amount, status, download_url, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.ID, p.CustomerID, p.ProductID, p.PaymentMethod, p.Amount, p.Status, p.DownloadURL, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		return nil
	})
}

func targetTable(t model.ReviewTarget) (string, error) {
	switch t.Type() {
	case model.ItemTypeService:
		return "services", nil
	case model.ItemTypeProduct:
		return "products", nil
	}
	return "", fmt.Errorf("review target: %w", ErrNotFound)
}

// InsertReview locks the target row first so concurrent reviews of the
// same item see each other when recomputing the mean.
func (r *PostgresRepository) InsertReview(ctx context.Context, rv model.Review) (float64, error) {
	table, err := targetTable(rv.Target)
	if err != nil {
		return 0, err
	}

	var avg float64
	err = r.RunAtomic(ctx, func(ctx context.Context) error {
		var id string
		err := r.getExecutor(ctx).QueryRow(ctx,
			"SELECT id FROM "+table+" WHERE id = $1 FOR UPDATE", rv.Target.ID()).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%s %s: %w", rv.Target.Type(), rv.Target.ID(), ErrNotFound)
			}
			return fmt.Errorf("failed to lock review target: %w", err)
		}

		_, err = r.getExecutor(ctx).Exec(ctx,
			`INSERT INTO reviews (id, item_id, item_type, user_id, rating, comment, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rv.ID, rv.Target.ID(), string(rv.Target.Type()), rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		err = r.getExecutor(ctx).QueryRow(ctx,
			`UPDATE `+table+` SET rating = (
			     SELECT AVG(rating)::float8 FROM reviews WHERE item_id = $1 AND item_type = $2
			 ) WHERE id = $1 RETURNING rating`,
			rv.Target.ID(), string(rv.Target.Type())).Scan(&avg)
		if err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		return nil
	})
	return avg, err
}

const (
	serviceColumns  = "id, provider_id, title, description, category, price, location, icon, rating, created_at"
	productColumns  = "id, seller_id, title, description, category, price, file_type, file_url, icon, rating, downloads, created_at"
	bookingColumns  = "id, customer_id, service_id, booking_date, booking_time, notes, status, created_at"
	purchaseColumns = "id, customer_id, product_id, payment_method, amount, status, download_url, created_at"
	reviewColumns   = "id, item_id, item_type, user_id, rating, comment, created_at"

	// byte-wise id order matches the in-memory repository
	newestOrder = ` ORDER BY created_at DESC, id COLLATE "C" ASC`
)

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.Title, &s.Description, &s.Category, &s.Price, &s.Location, &s.Icon, &s.Rating, &s.CreatedAt)
	return s, err
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Category, &p.Price, &p.FileType, &p.FileURL, &p.Icon, &p.Rating, &p.Downloads, &p.CreatedAt)
	return p, err
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.CustomerID, &b.ServiceID, &b.BookingDate, &b.BookingTime, &b.Notes, &b.Status, &b.CreatedAt)
	return b, err
}

func scanPurchase(row pgx.Row) (model.Purchase, error) {
	var p model.Purchase
	err := row.Scan(&p.ID, &p.CustomerID, &p.ProductID, &p.PaymentMethod, &p.Amount, &p.Status, &p.DownloadURL, &p.CreatedAt)
	return p, err
}

func scanReview(row pgx.Row) (model.Review, error) {
	var (
		rv               model.Review
		itemID, itemType string
	)
	if err := row.Scan(&rv.ID, &itemID, &itemType, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return rv, err
	}
	target, err := model.ParseReviewTarget(itemType, itemID)
	if err != nil {
		return rv, err
	}
	rv.Target = target
	return rv, nil
}

func (r *PostgresRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	s, err := scanService(r.getExecutor(ctx).QueryRow(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, fmt.Errorf("service %s: %w", id, ErrNotFound)
		}
		return s, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.getExecutor(ctx).QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return p, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// queryAll runs sql and scans every row; the result is never nil.
func queryAll[T any](ctx context.Context, ex PgxExecutor, scan func(pgx.Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := ex.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ServicesByProvider(ctx context.Context, providerID string) ([]model.Service, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanService,
		"SELECT "+serviceColumns+" FROM services WHERE provider_id = $1"+newestOrder, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider services: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ProductsBySeller(ctx context.Context, sellerID string) ([]model.Product, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanProduct,
		"SELECT "+productColumns+" FROM products WHERE seller_id = $1"+newestOrder, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) BookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanBooking,
		"SELECT "+bookingColumns+" FROM bookings WHERE customer_id = $1"+newestOrder, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) BookingsByService(ctx context.Context, serviceID string) ([]model.Booking, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanBooking,
		"SELECT "+bookingColumns+" FROM bookings WHERE service_id = $1"+newestOrder, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list service bookings: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) PurchasesByCustomer(ctx context.Context, customerID string) ([]model.Purchase, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanPurchase,
		"SELECT "+purchaseColumns+" FROM purchases WHERE customer_id = $1"+newestOrder, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ReviewsFor(ctx context.Context, target model.ReviewTarget) ([]model.Review, error) {
	out, err := queryAll(ctx, r.getExecutor(ctx), scanReview,
		"SELECT "+reviewColumns+" FROM reviews WHERE item_id = $1 AND item_type = $2"+newestOrder,
		target.ID(), string(target.Type()))
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Services(ctx context.Context, c listing.Criteria) iter.Seq2[model.Service, error] {
	sql, args := listingQuery("services", serviceColumns, c, true)
	return scanSeq(ctx, r.getExecutor(ctx), scanService, sql, args)
}

func (r *PostgresRepository) Products(ctx context.Context, c listing.Criteria) iter.Seq2[model.Product, error] {
	sql, args := listingQuery("products", productColumns, c, false)
	return scanSeq(ctx, r.getExecutor(ctx), scanProduct, sql, args)
}

// scanSeq runs the query afresh every time the sequence is ranged over.
func scanSeq[T any](ctx context.Context, ex PgxExecutor, scan func(pgx.Row) (T, error), sql string, args []any) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := ex.Query(ctx, sql, args...)
		if err != nil {
			yield(zero, fmt.Errorf("failed to query listings: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				yield(zero, fmt.Errorf("failed to scan listing: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// listingQuery renders criteria into SQL with positional arguments.
func listingQuery(table, columns string, c listing.Criteria, services bool) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Categories != nil {
		where = append(where, "category = ANY("+arg(c.Categories)+")")
	}
	if services && c.Location != nil {
		where = append(where, "location = "+arg(*c.Location))
	}
	if c.Search != "" {
		p := arg("%" + likeEscaper.Replace(c.Search) + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if pf := c.Price; pf != nil {
		if pf.Exact != nil {
			where = append(where, "price = "+arg(*pf.Exact))
		}
		if pf.Min != nil {
			where = append(where, "price >= "+arg(*pf.Min))
		}
		if pf.Max != nil {
			where = append(where, "price < "+arg(*pf.Max))
		}
	}

	sql := "SELECT " + columns + " FROM " + table
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql + orderBy(c.Sort, services), args
}

func orderBy(key listing.SortKey, services bool) string {
	const tie = `, id COLLATE "C" ASC`
	switch key {
	case listing.SortOldest:
		return " ORDER BY created_at ASC" + tie
	case listing.SortPriceAsc:
		return " ORDER BY price ASC" + tie
	case listing.SortPriceDesc:
		return " ORDER BY price DESC" + tie
	case listing.SortRating:
		return " ORDER BY rating DESC NULLS LAST" + tie
	case listing.SortPopular:
		if !services {
			return " ORDER BY downloads DESC" + tie
		}
	}
	return newestOrder
}
