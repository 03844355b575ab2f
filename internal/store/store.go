// Package store keeps the local booking history cache in sqlite. It is
// not the source of truth; the backend of record is. Versioned updates
// refuse stale writes so a late network response cannot overwrite a
// newer local state.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"frontdesk/internal/models"
)

// ErrStaleVersion is returned when an update carries an older version
// than the stored row.
var ErrStaleVersion = errors.New("stale booking version")

// ErrNotFound is returned when a booking does not exist locally.
var ErrNotFound = errors.New("booking not found")

// DB wraps sql.DB for the front-desk console.
type DB struct {
	*sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY,
			room_number TEXT NOT NULL,
			reference TEXT,
			source TEXT,
			status TEXT NOT NULL DEFAULT 'confirmed',
			check_in_date TEXT,
			check_in_time TEXT,
			check_in_ampm TEXT,
			check_out_date TEXT,
			check_out_time TEXT,
			check_out_ampm TEXT,
			total_amount REAL NOT NULL DEFAULT 0,
			paid_amount REAL NOT NULL DEFAULT 0,
			owner_reference BOOLEAN NOT NULL DEFAULT 0,
			payment_method TEXT,
			transaction_id TEXT,
			payment_id TEXT,
			guest_name TEXT,
			guest_phone TEXT,
			id_proof TEXT,
			company_name TEXT,
			gst_number TEXT,
			contact_name TEXT,
			contact_phone TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS rooms (
			number TEXT PRIMARY KEY,
			available BOOLEAN NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			detail TEXT,
			amount REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_booking ON audit_log(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest_phone ON bookings(guest_phone)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_company ON bookings(company_name)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

const bookingColumns = `id, room_number, reference, source, status,
	check_in_date, check_in_time, check_in_ampm,
	check_out_date, check_out_time, check_out_ampm,
	total_amount, paid_amount, owner_reference,
	COALESCE(payment_method, ''), COALESCE(transaction_id, ''), COALESCE(payment_id, ''),
	COALESCE(guest_name, ''), COALESCE(guest_phone, ''), COALESCE(id_proof, ''),
	COALESCE(company_name, ''), COALESCE(gst_number, ''), COALESCE(contact_name, ''), COALESCE(contact_phone, ''),
	created_at, updated_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.RoomNumber, &b.Reference, &b.Source, &b.Status,
		&b.CheckInDate, &b.CheckInTime, &b.CheckInMeridiem,
		&b.CheckOutDate, &b.CheckOutTime, &b.CheckOutMeridiem,
		&b.TotalAmount, &b.PaidAmount, &b.OwnerReference,
		&b.PaymentMethod, &b.TransactionID, &b.PaymentID,
		&b.GuestName, &b.GuestPhone, &b.IDProof,
		&b.CompanyName, &b.GSTNumber, &b.ContactName, &b.ContactPhone,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.RemainingAmount = b.Remaining()
	return &b, nil
}

// GetBooking returns a booking by id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// UpsertBooking inserts or replaces a booking row with a newer version.
// A row with an equal or newer version is left untouched and
// ErrStaleVersion is returned, so late responses never clobber fresher
// state.
func (db *DB) UpsertBooking(ctx context.Context, b *models.Booking) error {
	var current int64
	err := db.QueryRowContext(ctx, "SELECT version FROM bookings WHERE id = ?", b.ID).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		// new row
	case err != nil:
		return fmt.Errorf("check version for booking %d: %w", b.ID, err)
	case current >= b.Version:
		return fmt.Errorf("booking %d: have v%d, got v%d: %w", b.ID, current, b.Version, ErrStaleVersion)
	}

	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO bookings (
		id, room_number, reference, source, status,
		check_in_date, check_in_time, check_in_ampm,
		check_out_date, check_out_time, check_out_ampm,
		total_amount, paid_amount, owner_reference,
		payment_method, transaction_id, payment_id,
		guest_name, guest_phone, id_proof,
		company_name, gst_number, contact_name, contact_phone,
		created_at, updated_at, version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RoomNumber, b.Reference, b.Source, b.Status,
		b.CheckInDate, b.CheckInTime, b.CheckInMeridiem,
		b.CheckOutDate, b.CheckOutTime, b.CheckOutMeridiem,
		b.TotalAmount, b.PaidAmount, b.OwnerReference,
		b.PaymentMethod, b.TransactionID, b.PaymentID,
		b.GuestName, b.GuestPhone, b.IDProof,
		b.CompanyName, b.GSTNumber, b.ContactName, b.ContactPhone,
		b.CreatedAt, b.UpdatedAt, b.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert booking %d: %w", b.ID, err)
	}
	return nil
}

// UpdateBookingStatusWithVersion sets the status only when the stored
// version matches the expected one, bumping the version on success.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		status, id, version)
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %d at v%d: %w", id, version, ErrStaleVersion)
	}
	return nil
}

// UpdateBookingAmountsWithVersion sets total/paid amounts and the last
// payment method under the same optimistic version check as status
// updates.
func (db *DB) UpdateBookingAmountsWithVersion(ctx context.Context, id, version int64, total, paid float64, method models.PaymentMethod) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET total_amount = ?, paid_amount = ?, payment_method = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		total, paid, method, id, version)
	if err != nil {
		return fmt.Errorf("update booking %d amounts: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("booking %d at v%d: %w", id, version, ErrStaleVersion)
	}
	return nil
}

// SetRoomAvailable marks a room free or occupied.
func (db *DB) SetRoomAvailable(ctx context.Context, roomNumber string, available bool) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO rooms (number, available, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(number) DO UPDATE SET available = excluded.available, updated_at = CURRENT_TIMESTAMP`,
		roomNumber, available)
	if err != nil {
		return fmt.Errorf("set room %s availability: %w", roomNumber, err)
	}
	return nil
}

// RoomAvailable reports whether a room is free. Unknown rooms are
// treated as available.
func (db *DB) RoomAvailable(ctx context.Context, roomNumber string) (bool, error) {
	var available bool
	err := db.QueryRowContext(ctx,
		"SELECT available FROM rooms WHERE number = ?", roomNumber).Scan(&available)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("room %s availability: %w", roomNumber, err)
	}
	return available, nil
}

// GuestQuery filters the guest history search.
type GuestQuery struct {
	PhonePrefix       string
	CompanyPrefix     string
	CorporateOnly     bool
	IncludeCheckedOut bool
	Limit             int
}

// SearchGuests returns the most recent distinct guests whose phone (and
// optionally company name) starts with the given prefixes. Results are
// advisory pre-fill data, newest stay first.
func (db *DB) SearchGuests(ctx context.Context, q GuestQuery) ([]models.Guest, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}

	query := `SELECT guest_name, guest_phone, COALESCE(id_proof, ''), COALESCE(source, ''),
		COALESCE(company_name, ''), COALESCE(gst_number, ''),
		COALESCE(contact_name, ''), COALESCE(contact_phone, ''),
		MAX(updated_at)
		FROM bookings
		WHERE guest_phone LIKE ? AND status != ?`
	args := []any{q.PhonePrefix + "%", models.StatusCancelled}

	if !q.IncludeCheckedOut {
		query += " AND status != ?"
		args = append(args, models.StatusCheckedOut)
	}
	if q.CorporateOnly {
		query += " AND source = ?"
		args = append(args, models.SourceCorporate)
		if q.CompanyPrefix != "" {
			query += " AND company_name LIKE ?"
			args = append(args, q.CompanyPrefix+"%")
		}
	}

	query += " GROUP BY guest_phone ORDER BY MAX(updated_at) DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search guests: %w", err)
	}
	defer rows.Close()

	var guests []models.Guest
	for rows.Next() {
		var g models.Guest
		var lastStay string
		if err := rows.Scan(
			&g.Name, &g.Phone, &g.IDProof, &g.Source,
			&g.CompanyName, &g.GSTNumber, &g.ContactName, &g.ContactPhone,
			&lastStay,
		); err != nil {
			return nil, fmt.Errorf("scan guest: %w", err)
		}
		g.LastStay = parseStoredTime(lastStay)
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// parseStoredTime handles both RFC3339 (values written from Go) and the
// sqlite CURRENT_TIMESTAMP format. Aggregate expressions lose the column
// decltype, so the driver hands them back as strings.
func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
