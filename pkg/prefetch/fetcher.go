package prefetch

import (
	"context"
	"fmt"

	"github.com/replytics/voicebot-client/pkg/client"
)

// ClientFetcher adapts a Voice Bot client to the ResourceFetcher
// interface. Fetching through the client populates its response cache.
type ClientFetcher struct {
	client *client.Client
}

// NewClientFetcher wraps a Voice Bot client for cache warming.
func NewClientFetcher(c *client.Client) *ClientFetcher {
	return &ClientFetcher{client: c}
}

// FetchResource fetches one dashboard resource by name.
func (f *ClientFetcher) FetchResource(ctx context.Context, businessID, resource string) error {
	var err error
	switch resource {
	case "profile":
		_, err = f.client.GetBusinessProfile(ctx, businessID)
	case "services":
		_, err = f.client.GetServices(ctx, businessID, false)
	case "hours":
		_, err = f.client.GetBusinessHours(ctx, businessID)
	case "prompts":
		_, err = f.client.GetPrompts(ctx, businessID)
	case "sms":
		_, err = f.client.GetSMSConfig(ctx, businessID)
	case "integrations":
		_, err = f.client.GetIntegrations(ctx, businessID)
	case "staff":
		_, err = f.client.GetStaff(ctx, businessID)
	case "configuration":
		_, err = f.client.GetFullConfiguration(ctx, businessID)
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
	return err
}
