package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/config"
	"github.com/waterguard/waterguard/internal/types"
)

// Client talks to the remote WaterGuard REST backend. The evaluated
// alert/station/history data stays local; pushing through this client is
// the integration point for a connected deployment.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a backend client
func NewClient(cfg config.BackendConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// SetToken replaces the bearer token, e.g. after Login
func (c *Client) SetToken(token string) {
	c.token = token
}

// LoginResponse carries the token issued by the backend
type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and stores it on the client
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp LoginResponse
	err := c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// PushAlert uploads one alert record
func (c *Client) PushAlert(ctx context.Context, alert types.Alert) error {
	return c.post(ctx, "/alerts", alert, nil)
}

// PushMeasurement uploads one measurement for a station
func (c *Client) PushMeasurement(ctx context.Context, stationID string, point types.HistoryPoint) error {
	return c.post(ctx, fmt.Sprintf("/stations/%s/measurements", stationID), point, nil)
}

// PushCalibration uploads one calibration record
func (c *Client) PushCalibration(ctx context.Context, rec types.CalibrationRecord) error {
	return c.post(ctx, "/calibrations", rec, nil)
}

// PushFieldReport uploads one field report
func (c *Client) PushFieldReport(ctx context.Context, rep types.FieldReport) error {
	return c.post(ctx, "/reports", rep, nil)
}

// UploadPhoto uploads a photo as multipart form data and returns the
// stored URL reported by the backend
func (c *Client) UploadPhoto(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copying photo content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/photos", &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("backend error: %d - %s", resp.StatusCode, string(data))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	return result.URL, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error: %d - %s", resp.StatusCode, string(body))
	}

	c.log.Debug().Str("path", path).Dur("elapsed", time.Since(start)).Msg("backend request")

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
