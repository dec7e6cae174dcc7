package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airportmath/internal/domain"
)

// ErrNoRoute is returned when OSRM answers but has no usable route
var ErrNoRoute = errors.New("no route found")

// Route is the part of an OSRM route response the estimator needs
type Route struct {
	DurationSeconds float64
	DistanceMeters  float64
	Instructions    []string
}

type Client struct {
	baseURL    string
	profile    string
	userAgent  string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		profile:   "driving",
		userAgent: "AirportMath/1.0",
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiResponse struct {
	Code    string     `json:"code"`
	Message string     `json:"message,omitempty"`
	Routes  []apiRoute `json:"routes"`
}

type apiRoute struct {
	Duration *float64 `json:"duration"`
	Distance *float64 `json:"distance"`
	Legs     []apiLeg `json:"legs"`
}

type apiLeg struct {
	Steps []apiStep `json:"steps"`
}

type apiStep struct {
	Name     string      `json:"name"`
	Maneuver apiManeuver `json:"maneuver"`
}

type apiManeuver struct {
	Type        string `json:"type"`
	Modifier    string `json:"modifier,omitempty"`
	Instruction string `json:"instruction,omitempty"`
}

// Route asks OSRM for a driving route between two coordinates
func (c *Client) Route(ctx context.Context, from, to domain.Coordinate) (*Route, error) {
	params := url.Values{}
	params.Set("overview", "false")
	params.Set("steps", "true")

	reqURL := fmt.Sprintf("%s/route/v1/%s/%s;%s?%s",
		c.baseURL, c.profile, formatCoordinate(from), formatCoordinate(to), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if apiResp.Code != "Ok" || len(apiResp.Routes) == 0 {
		return nil, fmt.Errorf("%w: code=%q message=%q", ErrNoRoute, apiResp.Code, apiResp.Message)
	}

	r := apiResp.Routes[0]
	if r.Duration == nil || r.Distance == nil {
		return nil, fmt.Errorf("decoding response: route without duration or distance")
	}

	return &Route{
		DurationSeconds: *r.Duration,
		DistanceMeters:  *r.Distance,
		Instructions:    instructions(r),
	}, nil
}

// instructions flattens the first leg's steps. OSRM only fills maneuver
// instruction text when a text plugin is enabled, otherwise it is built from
// the maneuver type, modifier and road name.
func instructions(r apiRoute) []string {
	if len(r.Legs) == 0 {
		return []string{}
	}
	steps := r.Legs[0].Steps
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.Maneuver.Instruction != "" {
			out = append(out, s.Maneuver.Instruction)
			continue
		}
		if text := describe(s); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func describe(s apiStep) string {
	parts := make([]string, 0, 4)
	switch s.Maneuver.Type {
	case "":
		return ""
	case "depart":
		parts = append(parts, "Head")
	case "arrive":
		return "Arrive at destination"
	default:
		parts = append(parts, capitalize(s.Maneuver.Type))
	}
	if s.Maneuver.Modifier != "" {
		parts = append(parts, s.Maneuver.Modifier)
	}
	if s.Name != "" {
		parts = append(parts, "onto", s.Name)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// OSRM expects lng,lat order
func formatCoordinate(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
