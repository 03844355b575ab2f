// Package api exposes the front-desk console operations over HTTP for
// the reception UI. Handlers translate engine errors into the envelope
// the UI renders: validation problems and refused transitions carry the
// specific reason, upstream failures stay generic.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"frontdesk/internal/extension"
	"frontdesk/internal/guest"
	"frontdesk/internal/lifecycle"
	"frontdesk/internal/models"
	"frontdesk/internal/payment"
	"frontdesk/internal/service"
	"frontdesk/internal/store"
	"frontdesk/internal/timeutil"
)

// HTTPServer serves the console API.
type HTTPServer struct {
	reception *service.Reception
	matcher   *guest.Matcher
	apiKey    string
	logger    *zerolog.Logger
}

// NewHTTPServer wires the console API over the reception service.
func NewHTTPServer(reception *service.Reception, matcher *guest.Matcher, apiKey string, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{reception: reception, matcher: matcher, apiKey: apiKey, logger: logger}
}

// Routes builds the HTTP mux.
func (s *HTTPServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/check-in", s.auth(s.handleCheckIn))
	mux.HandleFunc("/api/v1/check-out", s.auth(s.handleCheckOut))
	mux.HandleFunc("/api/v1/pay-due", s.auth(s.handlePayDue))
	mux.HandleFunc("/api/v1/extend/propose", s.auth(s.handleProposeExtension))
	mux.HandleFunc("/api/v1/extend", s.auth(s.handleExtend))
	mux.HandleFunc("/api/v1/cancel", s.auth(s.handleCancel))
	mux.HandleFunc("/api/v1/refresh", s.auth(s.handleRefresh))
	mux.HandleFunc("/api/v1/payment-status", s.auth(s.handlePaymentStatus))
	mux.HandleFunc("/api/v1/stay-duration", s.auth(s.handleStayDuration))
	mux.HandleFunc("/api/v1/guests/suggest", s.auth(s.handleSuggest))
	return mux
}

func (s *HTTPServer) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}

// CheckInRequest is the body for POST /api/v1/check-in.
type CheckInRequest struct {
	BookingID        int64  `json:"booking_id"`
	CheckInDate      string `json:"check_in_date"`
	CheckInTime      string `json:"check_in_time"`
	CheckInMeridiem  string `json:"check_in_ampm"`
	CheckOutDate     string `json:"check_out_date"`
	CheckOutTime     string `json:"check_out_time"`
	CheckOutMeridiem string `json:"check_out_ampm"`
}

func (s *HTTPServer) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CheckInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.reception.CheckIn(r.Context(), req.BookingID, lifecycle.CheckInDetails{
		CheckInDate:      req.CheckInDate,
		CheckInTime:      req.CheckInTime,
		CheckInMeridiem:  req.CheckInMeridiem,
		CheckOutDate:     req.CheckOutDate,
		CheckOutTime:     req.CheckOutTime,
		CheckOutMeridiem: req.CheckOutMeridiem,
	})
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "guest checked in", map[string]any{"booking": booking})
}

// BookingRequest identifies a booking for single-field operations.
type BookingRequest struct {
	BookingID int64 `json:"booking_id"`
}

func (s *HTTPServer) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req BookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.reception.CheckOut(r.Context(), req.BookingID)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "guest checked out", map[string]any{"booking": booking})
}

// PayDueRequest is the body for POST /api/v1/pay-due.
type PayDueRequest struct {
	BookingID         int64                `json:"booking_id"`
	Amount            float64              `json:"amount"`
	PaymentMethod     models.PaymentMethod `json:"payment_method"`
	Notes             string               `json:"notes,omitempty"`
	AdjustedRemaining *float64             `json:"adjusted_remaining,omitempty"`
}

func (s *HTTPServer) handlePayDue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req PayDueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, err := s.reception.CollectPayment(r.Context(), req.BookingID, req.Amount, req.PaymentMethod, req.Notes, req.AdjustedRemaining)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "payment recorded", map[string]any{
		"new_remaining_amount": status.Remaining,
		"payment_status":       status.Category,
	})
}

// ProposeExtensionRequest is the body for POST /api/v1/extend/propose.
type ProposeExtensionRequest struct {
	BookingID    int64 `json:"booking_id"`
	DaysToExtend int   `json:"days_to_extend"`
}

func (s *HTTPServer) handleProposeExtension(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ProposeExtensionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	proposal, err := s.reception.ProposeExtension(r.Context(), req.BookingID, req.DaysToExtend)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "extension proposed", map[string]any{"proposal": proposal})
}

// ExtendRequest is the body for POST /api/v1/extend.
type ExtendRequest struct {
	BookingID        int64   `json:"booking_id"`
	DaysToExtend     int     `json:"days_to_extend"`
	NewCheckoutDate  string  `json:"new_checkout_date"`
	NewCheckoutTime  string  `json:"new_checkout_time"`
	NewCheckoutAMPM  string  `json:"new_checkout_ampm"`
	AdditionalAmount float64 `json:"additional_amount"`
}

func (s *HTTPServer) handleExtend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ExtendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.reception.ConfirmExtension(r.Context(), req.BookingID, extension.Confirmation{
		DaysToAdd:        req.DaysToExtend,
		NewCheckoutDate:  req.NewCheckoutDate,
		NewCheckoutTime:  req.NewCheckoutTime,
		NewCheckoutAMPM:  req.NewCheckoutAMPM,
		AdditionalAmount: req.AdditionalAmount,
	})
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "stay extended", map[string]any{"booking": booking})
}

// CancelRequest is the body for POST /api/v1/cancel.
type CancelRequest struct {
	BookingID int64                     `json:"booking_id"`
	Reason    models.CancellationReason `json:"reason"`
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.reception.Cancel(r.Context(), req.BookingID, req.Reason)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "booking cancelled", map[string]any{
		"cancellation_fee": result.CancellationFee,
		"refund_amount":    result.RefundAmount,
		"room_number":      result.RoomNumber,
	})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req BookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.reception.RefreshBooking(r.Context(), req.BookingID)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeSuccess(w, "booking refreshed", map[string]any{"booking": booking})
}

func (s *HTTPServer) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	bookingID, err := strconv.ParseInt(r.URL.Query().Get("booking_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	status, err := s.reception.PaymentStatus(r.Context(), bookingID)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *HTTPServer) handleStayDuration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	bookingID, err := strconv.ParseInt(r.URL.Query().Get("booking_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	duration, err := s.reception.StayDuration(r.Context(), bookingID)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"duration": duration})
}

func (s *HTTPServer) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}

	q := r.URL.Query()
	phone := q.Get("phone")
	company := q.Get("company")
	includeCheckedOut := q.Get("include_checked_out") == "true"

	var guests []models.Guest
	var err error
	if company != "" || q.Get("corporate") == "true" {
		guests, err = s.matcher.SuggestCorporate(r.Context(), phone, company, includeCheckedOut)
	} else {
		guests, err = s.matcher.Suggest(r.Context(), phone, includeCheckedOut)
	}
	if errors.Is(err, guest.ErrSuperseded) {
		// A newer keystroke owns the response now.
		writeJSON(w, http.StatusOK, map[string]any{"guests": []models.Guest{}, "superseded": true})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "suggestion lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guests": guests})
}

// writeOperationError maps engine errors onto HTTP statuses. Validation
// and refused transitions are the operator's to fix; everything else is
// surfaced generically and commits nothing.
func (s *HTTPServer) writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, service.ErrOperationInFlight):
		writeError(w, http.StatusConflict, "another operation for this booking is in progress")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		if te, ok := lifecycle.AsTransitionError(err); ok {
			writeError(w, http.StatusConflict, te.Error())
			return
		}
		s.logger.Error().Err(err).Msg("operation failed upstream")
		writeError(w, http.StatusBadGateway, "backend request failed; no changes were applied")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, payment.ErrInvalidAmount) ||
		errors.Is(err, payment.ErrMissingMethod) ||
		errors.Is(err, payment.ErrInvalidAdjustment) ||
		errors.Is(err, extension.ErrDaysOutOfRange) ||
		errors.Is(err, extension.ErrNotCheckedIn) ||
		errors.Is(err, timeutil.ErrInvalidTime) ||
		errors.Is(err, timeutil.ErrInvalidDate)
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeSuccess(w http.ResponseWriter, message string, data map[string]any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
