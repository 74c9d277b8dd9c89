// Package ewaybill is the REST client for the eWay Bill compliance API.
package ewaybill

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ewaybill-workers/internal/common/config"
	apperrors "ewaybill-workers/internal/common/errors"
	commonhttp "ewaybill-workers/internal/common/http"
	"ewaybill-workers/internal/common/metrics"
	"ewaybill-workers/internal/models"
)

type Client struct {
	cfg  config.EwayBillConfig
	http *commonhttp.Client
}

// NewClient builds a client from an explicit configuration object.
func NewClient(cfg config.EwayBillConfig) *Client {
	return NewClientWithHTTP(cfg, commonhttp.NewClient(config.GetDuration(cfg.Timeout)))
}

func NewClientWithHTTP(cfg config.EwayBillConfig, hc *commonhttp.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: hc}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"accept":        "*/*",
		"ip_address":    c.cfg.IPAddress,
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"gstin":         c.cfg.GSTIN,
		"Content-Type":  "application/json",
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("email", c.cfg.Email)
	return fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, query.Encode())
}

// Authenticate checks the configured credentials.
func (c *Client) Authenticate(ctx context.Context) (*AuthResponse, error) {
	q := url.Values{}
	q.Set("username", c.cfg.Username)
	q.Set("password", c.cfg.Password)

	resp, err := c.do(ctx, "authenticate", http.MethodGet, c.endpoint("/authenticate", q), nil)
	if err != nil {
		return nil, classifyTransportError("authenticate", err)
	}
	if !resp.OK() {
		return nil, classifyStatus("authenticate", resp)
	}

	out := AuthResponse{Success: true}
	if err := resp.Decode(&out); err != nil {
		return nil, apperrors.NewAPIError("authenticate", err)
	}
	if !out.Success {
		return nil, apperrors.NewAuthenticationError(out.Message)
	}
	return &out, nil
}

// GetEwayBill fetches one document by number.
func (c *Client) GetEwayBill(ctx context.Context, ewbNo string) (*models.EwayBillDocument, error) {
	q := url.Values{}
	q.Set("ewbNo", ewbNo)

	resp, err := c.do(ctx, "getewaybill", http.MethodGet, c.endpoint("/ewayapi/getewaybill", q), nil)
	if err != nil {
		return nil, classifyTransportError("getewaybill", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFoundError(ewbNo)
	}
	if !resp.OK() {
		return nil, classifyStatus("getewaybill", resp)
	}

	var data getEwayBillResponse
	if err := resp.Decode(&data); err != nil {
		return nil, apperrors.NewAPIError("getewaybill", err)
	}

	doc := &models.EwayBillDocument{
		EwayBillNo:        data.EwbNo,
		Vehicle:           data.VehicleNo,
		Validity:          data.ValidUpto,
		HoursToExpiry:     data.HoursToExpiry,
		FromPlace:         data.FromPlace,
		FromState:         data.FromState,
		RemainingDistance: data.RemainingDistance,
	}
	if doc.EwayBillNo == "" {
		doc.EwayBillNo = models.NumericString(ewbNo)
	}
	if doc.HoursToExpiry < 0 {
		doc.HoursToExpiry = 0
	}
	return doc, nil
}

// ExtendValidity returns false when the API answers with "success": false.
func (c *Client) ExtendValidity(ctx context.Context, req *ExtendValidityRequest) (bool, error) {
	return c.post(ctx, "extendvalidity", "/ewayapi/extendvalidity", req)
}

// UpdateVehicle updates Part B of a document.
func (c *Client) UpdateVehicle(ctx context.Context, req *UpdateVehicleRequest) (bool, error) {
	return c.post(ctx, "vehewb", "/ewayapi/vehewb", req)
}

func (c *Client) post(ctx context.Context, operation, path string, body interface{}) (bool, error) {
	resp, err := c.do(ctx, operation, http.MethodPost, c.endpoint(path, nil), body)
	if err != nil {
		return false, classifyTransportError(operation, err)
	}
	if !resp.OK() {
		return false, classifyStatus(operation, resp)
	}

	var status statusResponse
	if err := resp.Decode(&status); err != nil {
		return false, apperrors.NewAPIError(operation, err)
	}
	return status.accepted(), nil
}

func (c *Client) do(ctx context.Context, operation, method, target string, body interface{}) (*commonhttp.Response, error) {
	start := time.Now()
	defer func() {
		metrics.EwayBillAPICallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()
	return c.http.DoJSON(ctx, method, target, c.headers(), body)
}

func classifyTransportError(operation string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewAPITimeoutError(operation, err)
	}
	return apperrors.NewAPIError(operation, err)
}

func classifyStatus(operation string, resp *commonhttp.Response) error {
	detail := fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 512))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthenticationError(detail.Error())
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return apperrors.NewAPITimeoutError(operation, detail)
	default:
		return apperrors.NewAPIError(operation, detail)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
