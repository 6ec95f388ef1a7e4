package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSProvider implements ports.TimeMatrixLookup using the OpenRouteService
// matrix endpoint.
//
// When a DurationCache is configured it is consulted before calling the API
// and filled with fresh results afterwards. The provider is safe for
// concurrent use.
type ORSProvider struct {
	client  *apiClient
	apiKey  string
	baseURL string
	profile string
	cache   ports.DurationCache
}

type ORSOptions struct {
	BaseURL string
	Profile string
	// RequestsPerSecond limits outgoing calls; zero means unlimited.
	RequestsPerSecond float64
	Cache             ports.DurationCache
}

func NewORSProvider(apiKey string, opts ORSOptions) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	p := &ORSProvider{
		client:  newAPIClient("ors", opts.RequestsPerSecond),
		apiKey:  apiKey,
		baseURL: defaultORSBaseURL,
		profile: "driving-car",
		cache:   opts.Cache,
	}
	if opts.BaseURL != "" {
		p.baseURL = opts.BaseURL
	}
	if opts.Profile != "" {
		p.profile = opts.Profile
	}
	return p, nil
}

func (o *ORSProvider) Duration(ctx context.Context, origin, destination domain.Coordinates) (int, error) {
	row, err := o.Durations(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return 0, err
	}
	secs, ok := row[0]
	if !ok {
		return 0, fmt.Errorf("no route %s -> %s", origin.Key(), destination.Key())
	}
	return secs, nil
}

// Durations computes travel times from one origin to many destinations. The
// result is keyed by index into destinations; unroutable destinations are
// absent.
func (o *ORSProvider) Durations(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[int]int, err error) {
	defer obs.Time(ctx, "ors.Durations")(&err)

	out := make(map[int]int, len(destinations))
	if len(destinations) == 0 {
		return out, nil
	}

	originKey := origin.Key()

	keys := make([]string, 0, len(destinations))
	coords := make(map[string]domain.Coordinates, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if _, ok := coords[k]; ok {
			continue
		}
		coords[k] = d
		keys = append(keys, k)
	}

	hits := make(map[string]int)
	if o.cache != nil {
		hits, err = o.cache.GetMany(ctx, originKey, keys)
		if err != nil {
			// A broken cache should not stop routing.
			log.Printf("ors: duration cache read failed origin=%s: %v", originKey, err)
			hits = make(map[string]int)
		}
	}

	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == originKey {
			hits[k] = 0
			continue
		}
		if _, ok := hits[k]; !ok {
			misses = append(misses, k)
		}
	}

	fetched := map[string]int{}
	if len(misses) > 0 {
		missCoords := make([]domain.Coordinates, 0, len(misses))
		for _, k := range misses {
			missCoords = append(missCoords, coords[k])
		}

		fetched, err = o.fetchMatrixRow(ctx, origin, misses, missCoords)
		if err != nil {
			return nil, fmt.Errorf("fetching matrix row: %w", err)
		}

		if o.cache != nil && len(fetched) > 0 {
			if err := o.cache.PutMany(ctx, originKey, fetched); err != nil {
				log.Printf("ors: duration cache write failed origin=%s: %v", originKey, err)
			}
		}
	}

	for i, d := range destinations {
		k := d.Key()
		if secs, ok := hits[k]; ok {
			out[i] = secs
		} else if secs, ok := fetched[k]; ok {
			out[i] = secs
		}
	}
	return out, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrixRow retrieves durations from one origin to many destinations.
// Destinations the service cannot route (null cells) are left out.
func (o *ORSProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	keys []string,
	destinations []domain.Coordinates,
) (map[string]int, error) {
	if len(keys) != len(destinations) {
		return nil, errors.New("keys and destinations are expected to have the same length")
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	for _, c := range destinations {
		locations = append(locations, c.CoordsToList())
	}

	destIdx := make([]int, 0, len(destinations))
	for i := 1; i < len(locations); i++ {
		destIdx = append(destIdx, i)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"duration"},
		Sources:      []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Durations) != 1 {
		return nil, fmt.Errorf("expected 1 source row; got %d", len(mr.Durations))
	}
	row := mr.Durations[0]
	if len(row) != len(keys) {
		return nil, fmt.Errorf("row length %d does not match destinations %d", len(row), len(keys))
	}

	out := make(map[string]int, len(keys))
	for i, k := range keys {
		if row[i] == nil {
			continue
		}
		// ORS returns float seconds; round to whole seconds.
		out[k] = int(math.Round(*row[i]))
	}
	return out, nil
}

func (o *ORSProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
