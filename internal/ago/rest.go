package ago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSyncTimeout = 15 * time.Second

type featureRequest struct {
	EntityID      string            `json:"entityId"`
	ReferenceCode string            `json:"referenceCode"`
	Kind          string            `json:"kind"`
	Name          string            `json:"name"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	ObjectID      string            `json:"objectId,omitempty"`
}

type featureResponse struct {
	ObjectID string `json:"objectId"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// RESTClient pushes property features to an ArcGIS Online applyEdits-style
// endpoint over HTTP.
type RESTClient struct {
	client   *resty.Client
	endpoint string
}

func NewRESTClient(endpoint string) (*RESTClient, error) {
	client := resty.New()
	client.SetTimeout(defaultSyncTimeout)
	client.SetRetryCount(0)

	return NewRESTClientWithClient(endpoint, client)
}

func NewRESTClientWithClient(endpoint string, client *resty.Client) (*RESTClient, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("ago endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid ago endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSyncTimeout)
	}
	client.SetRetryCount(0)

	return &RESTClient{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (c *RESTClient) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("ago client is not initialized")
	}
	if strings.TrimSpace(req.EntityID) == "" {
		return nil, &SyncError{Message: "entity id is required", Transient: false}
	}

	reqBody := featureRequest{
		EntityID:      req.EntityID,
		ReferenceCode: req.ReferenceCode,
		Kind:          req.Kind.String(),
		Name:          req.Name,
		Attributes:    req.Attributes,
		ObjectID:      req.ObjectID,
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(c.endpoint)
	if err != nil {
		return nil, &SyncError{
			Message:   "ago request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &SyncError{
			Message:   "ago returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &SyncError{
			StatusCode: statusCode,
			Message:    syncErrorMessage(statusCode, responseBody),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	var parsed featureResponse
	if err := json.Unmarshal(response.Body(), &parsed); err != nil {
		return nil, &SyncError{
			StatusCode: statusCode,
			Message:    "ago returned malformed response body",
			Transient:  true,
			Cause:      err,
		}
	}
	if !parsed.Success {
		return nil, &SyncError{
			StatusCode: statusCode,
			Message:    syncErrorMessage(statusCode, parsed.Error),
			Transient:  false,
		}
	}
	if strings.TrimSpace(parsed.ObjectID) == "" {
		return nil, &SyncError{
			StatusCode: statusCode,
			Message:    "ago response is missing object id",
			Transient:  false,
		}
	}

	return &SyncResult{
		ObjectID:   parsed.ObjectID,
		StatusCode: statusCode,
		Body:       responseBody,
	}, nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func syncErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("ago returned status %d", statusCode)
	if strings.TrimSpace(body) == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
