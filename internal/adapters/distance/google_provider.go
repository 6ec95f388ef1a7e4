package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
)

const (
	defaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	// The Distance Matrix API accepts at most 25 destinations per request.
	googleMaxDestinations = 25
)

// GoogleProvider implements ports.TimeMatrixLookup using the Google Distance
// Matrix API with departure_time=now, preferring the traffic-aware duration.
type GoogleProvider struct {
	client  *apiClient
	apiKey  string
	baseURL string
}

type GoogleOptions struct {
	BaseURL           string
	RequestsPerSecond float64
}

func NewGoogleProvider(apiKey string, opts GoogleOptions) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.New("Google API key missing")
	}
	p := &GoogleProvider{
		client:  newAPIClient("google", opts.RequestsPerSecond),
		apiKey:  apiKey,
		baseURL: defaultGoogleBaseURL,
	}
	if opts.BaseURL != "" {
		p.baseURL = opts.BaseURL
	}
	return p, nil
}

type googleValue struct {
	Value int `json:"value"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status            string       `json:"status"`
			Duration          *googleValue `json:"duration"`
			DurationInTraffic *googleValue `json:"duration_in_traffic"`
		} `json:"elements"`
	} `json:"rows"`
}

func (g *GoogleProvider) Duration(ctx context.Context, origin, destination domain.Coordinates) (int, error) {
	row, err := g.Durations(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return 0, err
	}
	secs, ok := row[0]
	if !ok {
		return 0, fmt.Errorf("no route %s -> %s", origin.Key(), destination.Key())
	}
	return secs, nil
}

// Durations returns travel times keyed by index into destinations. Elements
// with a status other than OK are left out, as are the destinations of a
// failed request. It errors only when every request failed or ctx is done.
func (g *GoogleProvider) Durations(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[int]int, err error) {
	defer obs.Time(ctx, "google.Durations")(&err)

	out := make(map[int]int, len(destinations))
	var errs []error
	requests := 0
	for start := 0; start < len(destinations); start += googleMaxDestinations {
		end := min(start+googleMaxDestinations, len(destinations))
		requests++

		chunk, err := g.fetchRow(ctx, origin, destinations[start:end])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Printf("google: origin=%s destinations[%d:%d] failed: %v", origin.Key(), start, end, err)
			errs = append(errs, err)
			continue
		}
		for i, secs := range chunk {
			out[start+i] = secs
		}
	}
	if requests > 0 && len(errs) == requests {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func latLng(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 6, 64)
}

func (g *GoogleProvider) fetchRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[int]int, error) {
	dests := make([]string, 0, len(destinations))
	for _, d := range destinations {
		dests = append(dests, latLng(d))
	}

	q := url.Values{}
	q.Set("origins", latLng(origin))
	q.Set("destinations", strings.Join(dests, "|"))
	q.Set("mode", "driving")
	q.Set("departure_time", "now")
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "?" + q.Encode()

	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode distance matrix response: %w", err)
	}
	if gr.Status != "OK" {
		return nil, fmt.Errorf("distance matrix status %s: %s", gr.Status, gr.ErrorMessage)
	}
	if len(gr.Rows) != 1 || len(gr.Rows[0].Elements) != len(destinations) {
		return nil, fmt.Errorf("unexpected distance matrix shape for %d destinations", len(destinations))
	}

	out := make(map[int]int, len(destinations))
	for i, el := range gr.Rows[0].Elements {
		if el.Status != "OK" {
			continue
		}
		switch {
		case el.DurationInTraffic != nil:
			out[i] = el.DurationInTraffic.Value
		case el.Duration != nil:
			out[i] = el.Duration.Value
		}
	}
	return out, nil
}
