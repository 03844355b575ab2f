// Package backend is the HTTP client for the backend of record. It is
// the single source of truth for status and amounts; nothing here is
// committed locally until the server confirms it.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"frontdesk/internal/models"
)

// Client calls the reception backend APIs.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL and API key. Mutating
// requests are rate limited to keep a misbehaving UI loop from
// hammering the backend.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(20), 30),
	}
}

// UseRedisCache configures optional Redis caching for suggestion reads.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Response is the envelope every backend endpoint returns.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// APIError is a backend-reported failure (success=false or non-2xx).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend: http %d", e.StatusCode)
}

// CheckInOutRequest carries a check-in or check-out transition with the
// possibly edited date-time fields.
type CheckInOutRequest struct {
	BookingID        int64  `json:"booking_id"`
	RoomNumber       string `json:"room_number"`
	CheckInDate      string `json:"check_in_date,omitempty"`
	CheckInTime      string `json:"check_in_time,omitempty"`
	CheckInMeridiem  string `json:"check_in_ampm,omitempty"`
	CheckOutDate     string `json:"check_out_date,omitempty"`
	CheckOutTime     string `json:"check_out_time,omitempty"`
	CheckOutMeridiem string `json:"check_out_ampm,omitempty"`
}

// CheckIn transitions a booking to checked_in and persists the edited
// date-time fields.
func (c *Client) CheckIn(ctx context.Context, req CheckInOutRequest) (*models.Booking, error) {
	var data struct {
		Booking models.Booking `json:"booking"`
	}
	if err := c.doMutation(ctx, "/api/v1/bookings/check-in", req, &data); err != nil {
		return nil, err
	}
	return &data.Booking, nil
}

// CheckOut transitions a booking to checked_out.
func (c *Client) CheckOut(ctx context.Context, req CheckInOutRequest) (*models.Booking, error) {
	var data struct {
		Booking models.Booking `json:"booking"`
	}
	if err := c.doMutation(ctx, "/api/v1/bookings/check-out", req, &data); err != nil {
		return nil, err
	}
	return &data.Booking, nil
}

// PaymentRequest collects a due payment.
type PaymentRequest struct {
	BookingID         int64                `json:"booking_id"`
	Amount            float64              `json:"amount"`
	PaymentMethod     models.PaymentMethod `json:"payment_method"`
	Notes             string               `json:"notes,omitempty"`
	AdjustedRemaining *float64             `json:"adjusted_remaining,omitempty"`
}

// PaymentResult is the confirmed payment state after collection.
type PaymentResult struct {
	NewPaidAmount      float64                `json:"new_paid_amount"`
	NewRemainingAmount float64                `json:"new_remaining_amount"`
	PaymentStatus      models.PaymentCategory `json:"payment_status"`
}

// CollectPayment records a due-payment collection.
func (c *Client) CollectPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	var data PaymentResult
	if err := c.doMutation(ctx, "/api/v1/bookings/pay-due", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ExtensionRequest lengthens an active stay.
type ExtensionRequest struct {
	BookingID        int64   `json:"booking_id"`
	RoomNumber       string  `json:"room_number"`
	DaysToExtend     int     `json:"days_to_extend"`
	NewCheckoutDate  string  `json:"new_checkout_date"`
	NewCheckoutTime  string  `json:"new_checkout_time"`
	NewCheckoutAMPM  string  `json:"new_checkout_ampm"`
	AdditionalAmount float64 `json:"additional_amount"`
}

// ExtensionResult carries the confirmed checkout fields and new total.
type ExtensionResult struct {
	Booking struct {
		CheckOutDate     string  `json:"check_out_date"`
		CheckOutTime     string  `json:"check_out_time"`
		CheckOutMeridiem string  `json:"check_out_ampm"`
		TotalAmount      float64 `json:"total_amount"`
	} `json:"booking"`
}

// Extend confirms a stay extension.
func (c *Client) Extend(ctx context.Context, req ExtensionRequest) (*ExtensionResult, error) {
	var data ExtensionResult
	if err := c.doMutation(ctx, "/api/v1/bookings/extend", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CancellationRequest cancels a confirmed booking.
type CancellationRequest struct {
	BookingID int64                     `json:"booking_id"`
	Reason    models.CancellationReason `json:"reason"`
}

// CancellationResult is the refund outcome computed upstream.
type CancellationResult struct {
	CancellationFee float64 `json:"cancellation_fee"`
	RefundAmount    float64 `json:"refund_amount"`
	RoomNumber      string  `json:"room_number"`
}

// Cancel cancels a booking and returns the refund computation.
func (c *Client) Cancel(ctx context.Context, req CancellationRequest) (*CancellationResult, error) {
	var data CancellationResult
	if err := c.doMutation(ctx, "/api/v1/bookings/cancel", req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SuggestGuests fetches guest pre-fill suggestions by phone prefix.
// Responses are cached in redis when configured, since the same prefix
// is re-queried on every keystroke.
func (c *Client) SuggestGuests(ctx context.Context, phonePrefix string, includeCheckedOut bool) ([]models.Guest, error) {
	endpoint := fmt.Sprintf("%s/api/v1/guests/suggest?phone=%s&include_checked_out=%v",
		c.baseURL, url.QueryEscape(phonePrefix), includeCheckedOut)
	cacheKey := fmt.Sprintf("suggest:%s:%v", phonePrefix, includeCheckedOut)

	var wrap struct {
		Guests []models.Guest `json:"guests"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Guests, nil
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Guests, nil
}

// FetchBooking re-reads a booking's authoritative state.
func (c *Client) FetchBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/%d", c.baseURL, bookingID)
	var wrap struct {
		Booking models.Booking `json:"booking"`
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Booking, nil
}

// ChangedSince lists bookings updated after the given version
// watermark. The poller feeds these into the change-notification bus.
func (c *Client) ChangedSince(ctx context.Context, version int64) ([]models.Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/changed?since_version=%d", c.baseURL, version)
	var wrap struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

// HealthCheck checks whether the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req, "")
	return c.do(req, out)
}

// doMutation posts a state-changing request with a fresh idempotency
// key, unwraps the response envelope, and decodes data into out.
func (c *Client) doMutation(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req, uuid.NewString())

	var envelope Response
	if err := c.do(req, &envelope); err != nil {
		return err
	}
	if !envelope.Success {
		return &APIError{StatusCode: http.StatusOK, Message: envelope.Message}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope Response
		msg := ""
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			msg = envelope.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addHeaders(req *http.Request, idempotencyKey string) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("x-idempotency-key", idempotencyKey)
	}
}
