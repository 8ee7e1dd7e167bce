// Package payments holds the narrow contract against the checkout gateway:
// create a payment preference, get back the URL the patient is sent to.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Preference describes the payment to collect.
type Preference struct {
	// Reference ties the gateway payment back to the appointment.
	Reference  string  `json:"external_reference"`
	Title      string  `json:"title"`
	Amount     float64 `json:"unit_price"`
	PayerEmail string  `json:"payer_email,omitempty"`
}

// Gateway creates checkout preferences.
type Gateway interface {
	CreatePreference(ctx context.Context, p Preference) (initPoint string, err error)
}

type httpGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client against the given base URL.
func NewHTTPGateway(baseURL, token string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type preferenceResponse struct {
	InitPoint string `json:"init_point"`
}

func (g *httpGateway) CreatePreference(ctx context.Context, p Preference) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build preference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create preference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var pr preferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode preference response: %w", err)
	}
	if pr.InitPoint == "" {
		return "", fmt.Errorf("gateway response missing init_point")
	}
	return pr.InitPoint, nil
}
