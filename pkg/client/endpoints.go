package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Per-endpoint cache lifetimes. Slower-moving data caches longer.
const (
	ttlBusinessProfile = 10 * time.Minute
	ttlBusinessHours   = 10 * time.Minute
	ttlServices        = 5 * time.Minute
	ttlPrompts         = 5 * time.Minute
	ttlSMSConfig       = 5 * time.Minute
	ttlStaff           = 5 * time.Minute
	ttlIntegrations    = 3 * time.Minute
	ttlAnalytics       = 2 * time.Minute
	ttlConfiguration   = 5 * time.Minute
)

func businessParams(businessID string) url.Values {
	return url.Values{"business_id": []string{businessID}}
}

// GetBusinessProfile retrieves business profile information.
func (c *Client) GetBusinessProfile(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/business", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlBusinessProfile})
}

// UpdateBusinessProfile applies partial updates to the business profile.
func (c *Client) UpdateBusinessProfile(ctx context.Context, businessID string, updates any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPatch, "/api/v2/dashboard/business", businessParams(businessID), updates,
		InvokeOptions{})
}

// GetServices lists a business's services. Inactive services are
// included only when requested.
func (c *Client) GetServices(ctx context.Context, businessID string, includeInactive bool) (json.RawMessage, error) {
	params := businessParams(businessID)
	params.Set("include_inactive", strconv.FormatBool(includeInactive))
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/services", params, nil,
		InvokeOptions{Cacheable: true, TTL: ttlServices})
}

// CreateService creates a new service.
func (c *Client) CreateService(ctx context.Context, businessID string, service any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPost, "/api/v2/dashboard/services", businessParams(businessID), service,
		InvokeOptions{})
}

// UpdateService applies partial updates to an existing service.
func (c *Client) UpdateService(ctx context.Context, businessID, serviceID string, updates any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPatch, "/api/v2/dashboard/services/"+url.PathEscape(serviceID),
		businessParams(businessID), updates, InvokeOptions{})
}

// DeleteService removes a service.
func (c *Client) DeleteService(ctx context.Context, businessID, serviceID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodDelete, "/api/v2/dashboard/services/"+url.PathEscape(serviceID),
		businessParams(businessID), nil, InvokeOptions{})
}

// ReorderServices sets the display order of services.
func (c *Client) ReorderServices(ctx context.Context, businessID string, serviceIDs []string) (json.RawMessage, error) {
	body := map[string][]string{"service_ids": serviceIDs}
	return c.Invoke(ctx, http.MethodPost, "/api/v2/dashboard/services/reorder", businessParams(businessID), body,
		InvokeOptions{})
}

// ApplyServiceTemplate replaces the service list with a named template.
func (c *Client) ApplyServiceTemplate(ctx context.Context, businessID, templateName string) (json.RawMessage, error) {
	body := map[string]string{"template_name": templateName}
	return c.Invoke(ctx, http.MethodPost, "/api/v2/dashboard/services/apply-template", businessParams(businessID), body,
		InvokeOptions{})
}

// GetBusinessHours retrieves operating hours.
func (c *Client) GetBusinessHours(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/hours", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlBusinessHours})
}

// UpdateBusinessHours replaces the operating hours.
func (c *Client) UpdateBusinessHours(ctx context.Context, businessID string, hours any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPut, "/api/v2/dashboard/hours", businessParams(businessID), hours,
		InvokeOptions{})
}

// AddHoliday registers a holiday closure. Date is YYYY-MM-DD.
func (c *Client) AddHoliday(ctx context.Context, businessID, date, description string) (json.RawMessage, error) {
	body := map[string]string{"date": date}
	if description != "" {
		body["description"] = description
	}
	return c.Invoke(ctx, http.MethodPost, "/api/v2/dashboard/holidays", businessParams(businessID), body,
		InvokeOptions{})
}

// RemoveHoliday deletes a holiday closure. Date is YYYY-MM-DD.
func (c *Client) RemoveHoliday(ctx context.Context, businessID, date string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodDelete, "/api/v2/dashboard/holidays/"+url.PathEscape(date),
		businessParams(businessID), nil, InvokeOptions{})
}

// GetPrompts retrieves the AI prompt templates.
func (c *Client) GetPrompts(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/prompts", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlPrompts})
}

// UpdatePrompts applies partial updates to the AI prompt templates.
func (c *Client) UpdatePrompts(ctx context.Context, businessID string, prompts any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPatch, "/api/v2/dashboard/prompts", businessParams(businessID), prompts,
		InvokeOptions{})
}

// GetSMSConfig retrieves the SMS configuration.
func (c *Client) GetSMSConfig(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/sms", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlSMSConfig})
}

// UpdateSMSConfig applies partial updates to the SMS configuration.
func (c *Client) UpdateSMSConfig(ctx context.Context, businessID string, cfg any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPatch, "/api/v2/dashboard/sms", businessParams(businessID), cfg,
		InvokeOptions{})
}

// GetIntegrations retrieves third-party integration status.
func (c *Client) GetIntegrations(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/integrations", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlIntegrations})
}

// GetStaff lists staff members.
func (c *Client) GetStaff(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/staff", businessParams(businessID), nil,
		InvokeOptions{Cacheable: true, TTL: ttlStaff})
}

// AddStaff creates a staff member.
func (c *Client) AddStaff(ctx context.Context, businessID string, staff any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPost, "/api/v2/dashboard/staff", businessParams(businessID), staff,
		InvokeOptions{})
}

// UpdateStaff applies partial updates to a staff member.
func (c *Client) UpdateStaff(ctx context.Context, businessID, staffID string, updates any) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodPatch, "/api/v2/dashboard/staff/"+url.PathEscape(staffID),
		businessParams(businessID), updates, InvokeOptions{})
}

// AnalyticsQuery narrows an analytics request. Zero values are omitted.
type AnalyticsQuery struct {
	StartDate string
	EndDate   string
	Metrics   []string
}

// GetAnalytics retrieves analytics data, optionally narrowed by date
// range and metric names.
func (c *Client) GetAnalytics(ctx context.Context, businessID string, q AnalyticsQuery) (json.RawMessage, error) {
	params := businessParams(businessID)
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	if len(q.Metrics) > 0 {
		params.Set("metrics", strings.Join(q.Metrics, ","))
	}
	return c.Invoke(ctx, http.MethodGet, "/api/v2/dashboard/analytics", params, nil,
		InvokeOptions{Cacheable: true, TTL: ttlAnalytics})
}

// GetFullConfiguration retrieves the complete business configuration.
func (c *Client) GetFullConfiguration(ctx context.Context, businessID string) (json.RawMessage, error) {
	return c.Invoke(ctx, http.MethodGet, "/api/v2/configuration/"+url.PathEscape(businessID), nil, nil,
		InvokeOptions{Cacheable: true, TTL: ttlConfiguration})
}
