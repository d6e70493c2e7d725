// Package clinic provides an HTTP client for the clinic service, the system
// of record for patient demographics. The genomics service never creates
// patients; it confirms their existence here before attaching reports.
package clinic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Patient is the demographic payload returned by the clinic service.
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
	Status    string `json:"status"`
}

// Client talks to the clinic service's REST API.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a clinic client against the given base URL.
// Lookups are treated as best-effort: no retries, a hard 10 second timeout.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// GetPatient looks up a single patient by identifier.
//
// It returns (patient, true) on a 200 response. A 404, any other non-200
// status, or a transport failure all fold into (nil, false); failures are
// logged but never surfaced as errors, so a clinic outage degrades lookups
// rather than breaking callers.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, bool) {
	var patient Patient
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&patient).
		Get(fmt.Sprintf("/patients/%s", id))

	if err != nil {
		c.logger.Warn().Err(err).Str("patient_id", id).Msg("clinic service unreachable")
		return nil, false
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return &patient, true
	case http.StatusNotFound:
		return nil, false
	default:
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("patient_id", id).
			Msg("unexpected clinic service response")
		return nil, false
	}
}

// GetPatientsBatch fetches demographics for a set of patient identifiers,
// one lookup per distinct id. Patients the clinic service does not know are
// omitted from the result.
func (c *Client) GetPatientsBatch(ctx context.Context, ids []string) map[string]*Patient {
	result := make(map[string]*Patient, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if patient, ok := c.GetPatient(ctx, id); ok {
			result[id] = patient
		}
	}
	return result
}
