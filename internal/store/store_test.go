package store

import (
	"context"
	"testing"
	"time"

	"frontdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleBooking(id int64) *models.Booking {
	return &models.Booking{
		ID:               id,
		RoomNumber:       "101",
		Source:           models.SourceWalkIn,
		Status:           models.StatusConfirmed,
		CheckInDate:      "2024-01-08",
		CheckInTime:      "2:00",
		CheckInMeridiem:  "PM",
		CheckOutDate:     "2024-01-10",
		CheckOutTime:     "11:00",
		CheckOutMeridiem: "AM",
		TotalAmount:      2000,
		PaidAmount:       500,
		GuestName:        "Ravi Kumar",
		GuestPhone:       "9876543210",
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
		Version:          1,
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	b := sampleBooking(1)
	require.NoError(t, db.UpsertBooking(ctx, b))

	got, err := db.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, b.RoomNumber, got.RoomNumber)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, 1500.0, got.RemainingAmount)

	_, err = db.GetBooking(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertRefusesStaleVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	b := sampleBooking(1)
	b.Version = 3
	require.NoError(t, db.UpsertBooking(ctx, b))

	stale := sampleBooking(1)
	stale.Version = 2
	stale.PaidAmount = 0
	assert.ErrorIs(t, db.UpsertBooking(ctx, stale), ErrStaleVersion)

	// Equal version also refused: last write does not win.
	equal := sampleBooking(1)
	equal.Version = 3
	assert.ErrorIs(t, db.UpsertBooking(ctx, equal), ErrStaleVersion)

	got, err := db.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.PaidAmount)

	newer := sampleBooking(1)
	newer.Version = 4
	newer.PaidAmount = 2000
	require.NoError(t, db.UpsertBooking(ctx, newer))
}

func TestUpdateStatusWithVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertBooking(ctx, sampleBooking(1)))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, 1, 1, models.StatusCheckedIn))

	got, err := db.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// Re-applying with the old version is refused.
	err = db.UpdateBookingStatusWithVersion(ctx, 1, 1, models.StatusCheckedOut)
	assert.ErrorIs(t, err, ErrStaleVersion)
}

func TestUpdateAmountsWithVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertBooking(ctx, sampleBooking(1)))
	require.NoError(t, db.UpdateBookingAmountsWithVersion(ctx, 1, 1, 2000, 2000, models.MethodCash))

	got, err := db.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, got.PaidAmount)
	assert.Equal(t, 0.0, got.RemainingAmount)
	assert.Equal(t, models.MethodCash, got.PaymentMethod)

	assert.ErrorIs(t, db.UpdateBookingAmountsWithVersion(ctx, 1, 1, 1, 1, models.MethodCash), ErrStaleVersion)
}

func TestRoomAvailability(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Unknown room is available.
	free, err := db.RoomAvailable(ctx, "305")
	require.NoError(t, err)
	assert.True(t, free)

	require.NoError(t, db.SetRoomAvailable(ctx, "305", false))
	free, err = db.RoomAvailable(ctx, "305")
	require.NoError(t, err)
	assert.False(t, free)

	require.NoError(t, db.SetRoomAvailable(ctx, "305", true))
	free, err = db.RoomAvailable(ctx, "305")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestSearchGuests(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	walkIn := sampleBooking(1)
	require.NoError(t, db.UpsertBooking(ctx, walkIn))

	past := sampleBooking(2)
	past.Status = models.StatusCheckedOut
	past.GuestName = "Asha Mehta"
	past.GuestPhone = "9871112222"
	require.NoError(t, db.UpsertBooking(ctx, past))

	corp := sampleBooking(3)
	corp.Source = models.SourceCorporate
	corp.GuestName = "Vikram Shah"
	corp.GuestPhone = "9873334444"
	corp.CompanyName = "Acme Industries"
	corp.GSTNumber = "27AAACA1234F1Z5"
	require.NoError(t, db.UpsertBooking(ctx, corp))

	t.Run("phone prefix", func(t *testing.T) {
		guests, err := db.SearchGuests(ctx, GuestQuery{PhonePrefix: "987654"})
		require.NoError(t, err)
		require.Len(t, guests, 1)
		assert.Equal(t, "Ravi Kumar", guests[0].Name)
	})

	t.Run("checked out excluded by default", func(t *testing.T) {
		guests, err := db.SearchGuests(ctx, GuestQuery{PhonePrefix: "9871"})
		require.NoError(t, err)
		assert.Empty(t, guests)
	})

	t.Run("include checked out widens history", func(t *testing.T) {
		guests, err := db.SearchGuests(ctx, GuestQuery{PhonePrefix: "9871", IncludeCheckedOut: true})
		require.NoError(t, err)
		require.Len(t, guests, 1)
		assert.Equal(t, "Asha Mehta", guests[0].Name)
	})

	t.Run("corporate scope", func(t *testing.T) {
		guests, err := db.SearchGuests(ctx, GuestQuery{
			PhonePrefix: "987", CorporateOnly: true, CompanyPrefix: "Acme",
		})
		require.NoError(t, err)
		require.Len(t, guests, 1)
		assert.Equal(t, "Acme Industries", guests[0].CompanyName)
		assert.Equal(t, "27AAACA1234F1Z5", guests[0].GSTNumber)
	})

	t.Run("deduplicates by phone", func(t *testing.T) {
		repeat := sampleBooking(4)
		repeat.GuestPhone = walkIn.GuestPhone
		require.NoError(t, db.UpsertBooking(ctx, repeat))

		guests, err := db.SearchGuests(ctx, GuestQuery{PhonePrefix: "987654"})
		require.NoError(t, err)
		assert.Len(t, guests, 1)
	})
}
