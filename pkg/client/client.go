// Package client is a thin SDK over the scheduling API. It adds the
// behaviors a frontend needs and the server does not provide: a
// read-through cache for slot resolutions, last-request-wins sequencing
// when the user flips between doctors and dates, and optimistic
// availability edits with rollback.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/telehealth-api/internal/model"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is returned for any non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "request failed"}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var out model.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", &model.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// ListDoctors fetches the bookable doctor directory, optionally filtered
// by specialty and a name search term.
func (c *Client) ListDoctors(ctx context.Context, specialty, search string) ([]*model.User, error) {
	q := url.Values{}
	if specialty != "" {
		q.Set("specialty", specialty)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/api/v1/doctors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []*model.User
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTimeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]model.TimeSlot, error) {
	var out []model.TimeSlot
	path := fmt.Sprintf("/api/v1/slots?doctor_id=%s&date=%s", doctorID, date.Format("2006-01-02"))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BookAppointment(ctx context.Context, req *model.BookAppointmentRequest) (*model.BookAppointmentResponse, error) {
	var out model.BookAppointmentResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAppointments(ctx context.Context, status model.AppointmentStatus, intervalDays int) ([]*model.AppointmentGroup, error) {
	path := "/api/v1/appointments"
	sep := "?"
	if status != "" {
		path += sep + "status=" + string(status)
		sep = "&"
	}
	if intervalDays > 0 {
		path += fmt.Sprintf("%sinterval=%d", sep, intervalDays)
	}

	var out []*model.AppointmentGroup
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	var out model.Appointment
	path := fmt.Sprintf("/api/v1/appointments/%s/status", id)
	if err := c.do(ctx, http.MethodPatch, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAvailabilities(ctx context.Context) ([]*model.Availability, error) {
	var out []*model.Availability
	if err := c.do(ctx, http.MethodGet, "/api/v1/availabilities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAvailability(ctx context.Context, req *model.CreateAvailabilityRequest) (*model.Availability, error) {
	var out model.Availability
	if err := c.do(ctx, http.MethodPost, "/api/v1/availabilities", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/availabilities/%s", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
