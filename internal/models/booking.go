package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// PaymentCategory is the derived payment state of a booking.
// It is recomputed on every read, never stored as ground truth.
type PaymentCategory string

const (
	PaymentFree          PaymentCategory = "free"
	PaymentFullyPaid     PaymentCategory = "fully_paid"
	PaymentPartiallyPaid PaymentCategory = "partially_paid"
	PaymentUnpaid        PaymentCategory = "unpaid"
)

// BookingSource identifies where a booking came from.
type BookingSource string

const (
	SourceWalkIn    BookingSource = "walk_in"
	SourceCorporate BookingSource = "corporate"
	SourceMMT       BookingSource = "MMT"
	SourceAgoda     BookingSource = "Agoda"
	SourceTravel    BookingSource = "Travel Plus"
	SourcePhoneCall BookingSource = "Phone Call Booking"
)

// PaymentMethod is how a payment was collected.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodRazorpay PaymentMethod = "razorpay"
	MethodOnline   PaymentMethod = "online"
)

// CancellationReason is one of the fixed reasons accepted for cancelling
// a confirmed booking.
type CancellationReason string

const (
	ReasonGuestRequest     CancellationReason = "guest_request"
	ReasonMedicalEmergency CancellationReason = "medical_emergency"
	ReasonTravelIssues     CancellationReason = "travel_issues"
	ReasonHotelFault       CancellationReason = "hotel_fault"
	ReasonWeather          CancellationReason = "weather"
	ReasonForceMajeure     CancellationReason = "force_majeure"
	ReasonServiceIssue     CancellationReason = "service_issue"
	ReasonRoomProblem      CancellationReason = "room_problem"
	ReasonOther            CancellationReason = "other"
)

// ValidCancellationReason reports whether r belongs to the fixed reason set.
func ValidCancellationReason(r CancellationReason) bool {
	switch r {
	case ReasonGuestRequest, ReasonMedicalEmergency, ReasonTravelIssues,
		ReasonHotelFault, ReasonWeather, ReasonForceMajeure,
		ReasonServiceIssue, ReasonRoomProblem, ReasonOther:
		return true
	}
	return false
}

// Booking represents a reception booking record.
//
// CheckInTime/CheckOutTime are 12-hour wall-clock strings ("H:MM") with
// separate meridiem markers, matching the backend read model.
// RemainingAmount carried on the wire is advisory only; use Remaining().
type Booking struct {
	ID               int64         `json:"booking_id"`
	RoomNumber       string        `json:"room_number"`
	Reference        string        `json:"booking_reference,omitempty"`
	Source           BookingSource `json:"booking_source,omitempty"`
	Status           BookingStatus `json:"booking_status"`
	CheckInDate      string        `json:"check_in_date"`
	CheckInTime      string        `json:"check_in_time"`
	CheckInMeridiem  string        `json:"check_in_ampm"`
	CheckOutDate     string        `json:"check_out_date"`
	CheckOutTime     string        `json:"check_out_time"`
	CheckOutMeridiem string        `json:"check_out_ampm"`
	TotalAmount      float64       `json:"total_amount"`
	PaidAmount       float64       `json:"paid_amount"`
	RemainingAmount  float64       `json:"remaining_amount"`
	OwnerReference   bool          `json:"owner_reference"`
	PaymentMethod    PaymentMethod `json:"payment_method,omitempty"`
	TransactionID    string        `json:"transaction_id,omitempty"`
	PaymentID        string        `json:"payment_id,omitempty"`

	// Guest contact fields.
	GuestName  string `json:"guest_name,omitempty"`
	GuestPhone string `json:"guest_phone,omitempty"`
	IDProof    string `json:"id_proof,omitempty"`

	// Corporate sub-fields, present only when Source == SourceCorporate.
	CompanyName  string `json:"company_name,omitempty"`
	GSTNumber    string `json:"gst_number,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Version   int64     `json:"version"`
}

// Remaining returns the due amount, always recomputed from total and paid.
// The stored RemainingAmount field is never authoritative.
func (b *Booking) Remaining() float64 {
	r := b.TotalAmount - b.PaidAmount
	if r < 0 {
		return 0
	}
	return r
}

// IsCorporate reports whether corporate sub-fields apply.
func (b *Booking) IsCorporate() bool {
	return b.Source == SourceCorporate
}

// Guest is an advisory record reconstructed from booking history,
// logically keyed by phone number. There is no hard uniqueness
// constraint; matching is suggestion only.
type Guest struct {
	Name         string        `json:"guest_name"`
	Phone        string        `json:"guest_phone"`
	IDProof      string        `json:"id_proof,omitempty"`
	Source       BookingSource `json:"booking_source,omitempty"`
	CompanyName  string        `json:"company_name,omitempty"`
	GSTNumber    string        `json:"gst_number,omitempty"`
	ContactName  string        `json:"contact_name,omitempty"`
	ContactPhone string        `json:"contact_phone,omitempty"`
	LastStay     time.Time     `json:"last_stay,omitempty"`
}
