// Package integrations holds the HTTP clients for the collaborating
// systems: the IPAM service that hands out VIP addresses and DNS names,
// and the CMDB that tracks configuration items and change tickets. Both
// are best-effort collaborators; failures surface as INTEGRATION_FAILED
// errors rather than panics so callers can degrade gracefully.
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

const integrationTimeout = 10 * time.Second

// IPAMClient talks to the IP address management service.
type IPAMClient struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// NewIPAMClient creates a client for the IPAM service at baseURL.
func NewIPAMClient(baseURL string, log *logger.Logger) *IPAMClient {
	return &IPAMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: integrationTimeout},
		logger:  log.WithField("component", "ipam"),
	}
}

// IPAllocation is a granted address with its registered DNS name.
type IPAllocation struct {
	IPAddress string `json:"ip_address"`
	FQDN      string `json:"fqdn"`
	SubnetID  string `json:"subnet_id"`
}

// RequestIP asks for the next free address in a subnet.
func (c *IPAMClient) RequestIP(ctx context.Context, subnetID string) (*IPAllocation, error) {
	var alloc IPAllocation
	err := c.post(ctx, "/api/ipam/request_ip", map[string]string{"subnet_id": subnetID}, &alloc)
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

// ReserveIP pins a specific address to an FQDN.
func (c *IPAMClient) ReserveIP(ctx context.Context, ipAddress, fqdn, subnetID string) error {
	body := map[string]string{
		"ip_address": ipAddress,
		"fqdn":       fqdn,
		"subnet_id":  subnetID,
	}
	return c.post(ctx, "/api/ipam/reserve_ip", body, nil)
}

// ReleaseIP frees an address and its DNS record.
func (c *IPAMClient) ReleaseIP(ctx context.Context, ipAddress string) error {
	return c.post(ctx, "/api/ipam/release_ip", map[string]string{"ip_address": ipAddress}, nil)
}

// UpdateFQDN repoints the DNS name for an allocated address.
func (c *IPAMClient) UpdateFQDN(ctx context.Context, ipAddress, fqdn string) error {
	body := map[string]string{
		"ip_address": ipAddress,
		"fqdn":       fqdn,
	}
	return c.post(ctx, "/api/ipam/update_fqdn", body, nil)
}

// ResolveFQDN looks up the address registered for a DNS name.
func (c *IPAMClient) ResolveFQDN(ctx context.Context, fqdn string) (string, error) {
	endpoint := c.baseURL + "/api/ipam/resolve?fqdn=" + url.QueryEscape(fqdn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperrors.WrapError(err, apperrors.ErrCodeInternalError, "ipam", "failed to build request")
	}

	var result struct {
		FQDN      string `json:"fqdn"`
		IPAddress string `json:"ip_address"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.IPAddress, nil
}

func (c *IPAMClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeInternalError, "ipam", "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeInternalError, "ipam", "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *IPAMClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("IPAM request failed")
		return apperrors.WrapError(err, apperrors.ErrCodeIntegrationFailed, "ipam", "IPAM service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewError(
			apperrors.ErrCodeIntegrationFailed,
			"ipam",
			fmt.Sprintf("IPAM returned status %d", resp.StatusCode),
		).WithMetadata("response", string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeIntegrationFailed, "ipam", "failed to decode IPAM response")
	}
	return nil
}
