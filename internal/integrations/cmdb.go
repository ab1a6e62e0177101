package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/dpaschgit/lbaasv1/internal/errors"
	"github.com/dpaschgit/lbaasv1/pkg/logger"
)

// CMDB table names used by the platform.
const (
	TableServerHardware  = "cmdb_ci_server_hardware"
	TableLBVirtualServer = "cmdb_ci_lb_virtual_server"
)

// CMDBClient talks to the configuration management database. Create and
// update payloads are wrapped in a "data" envelope per the table API.
type CMDBClient struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// NewCMDBClient creates a client for the CMDB service at baseURL.
func NewCMDBClient(baseURL string, log *logger.Logger) *CMDBClient {
	return &CMDBClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: integrationTimeout},
		logger:  log.WithField("component", "cmdb"),
	}
}

// CIRecord is a configuration item as returned by the table API.
type CIRecord struct {
	SysID   string                 `json:"sys_id"`
	Details map[string]interface{} `json:"details"`
}

// IncidentValidation is the change ticket check result.
type IncidentValidation struct {
	Valid         bool   `json:"valid"`
	IncidentID    string `json:"incident_id"`
	IncidentState string `json:"incident_state,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// CreateCI inserts a configuration item into a table.
func (c *CMDBClient) CreateCI(ctx context.Context, table string, fields map[string]interface{}) (*CIRecord, error) {
	payload, err := json.Marshal(map[string]interface{}{"data": fields})
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to encode CI payload")
	}

	endpoint := c.baseURL + "/api/now/table/" + url.PathEscape(table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	var record CIRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// QueryCIs lists configuration items in a table, optionally narrowed by a
// caret-separated key=value query such as "owner=user1^environment=Prod".
func (c *CMDBClient) QueryCIs(ctx context.Context, table, query string) ([]CIRecord, error) {
	endpoint := c.baseURL + "/api/now/table/" + url.PathEscape(table)
	if query != "" {
		endpoint += "?sysparm_query=" + url.QueryEscape(query)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to build request")
	}

	var records []CIRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateCI merges fields into an existing configuration item.
func (c *CMDBClient) UpdateCI(ctx context.Context, table, sysID string, fields map[string]interface{}) (*CIRecord, error) {
	payload, err := json.Marshal(map[string]interface{}{"data": fields})
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to encode CI payload")
	}

	endpoint := c.baseURL + "/api/now/table/" + url.PathEscape(table) + "/" + url.PathEscape(sysID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	var record CIRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ValidateIncident checks whether a change ticket is approved for work.
// An unreachable CMDB is an integration error, distinct from a rejected
// ticket which comes back as a valid response with Valid=false.
func (c *CMDBClient) ValidateIncident(ctx context.Context, number string) (*IncidentValidation, error) {
	endpoint := c.baseURL + "/api/servicenow_mock/validate_incident?number=" + url.QueryEscape(number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrCodeInternalError, "cmdb", "failed to build request")
	}

	var result IncidentValidation
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CMDBClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("CMDB request failed")
		return apperrors.WrapError(err, apperrors.ErrCodeIntegrationFailed, "cmdb", "CMDB service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewError(
			apperrors.ErrCodeIntegrationFailed,
			"cmdb",
			fmt.Sprintf("CMDB returned status %d", resp.StatusCode),
		).WithMetadata("response", string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeIntegrationFailed, "cmdb", "failed to decode CMDB response")
	}
	return nil
}
