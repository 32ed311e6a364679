// Package strava is a read-only client for the Strava v3 REST API covering
// the feeds the state engine consumes: athlete profile and gear, activity
// history, single-activity detail, and saved routes.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const BaseURL = "https://www.strava.com/api/v3"

// Per-call timeouts. History and gear syncs aggregate several requests, so
// their budget is larger than a single-resource fetch.
const (
	TimeoutSingle = 10 * time.Second
	TimeoutBatch  = 30 * time.Second
)

// Client is an authenticated Strava API client. All methods return an
// error on any non-2xx response or malformed payload; callers must treat
// that as "keep prior state", never as a partial result.
type Client struct {
	httpClient  *http.Client
	rateLimiter *RateLimiter
	baseURL     string
}

// NewClient creates a client from an OAuth2 token source.
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return &Client{
		httpClient:  oauth2.NewClient(context.Background(), tokenSource),
		rateLimiter: NewRateLimiter(),
		baseURL:     BaseURL,
	}
}

// NewClientWithBaseURL creates a client against a different API root, for
// tests.
func NewClientWithBaseURL(tokenSource oauth2.TokenSource, base string) *Client {
	c := NewClient(tokenSource)
	c.baseURL = base
	return c
}

// GetAthlete fetches the authenticated athlete's detailed profile,
// including the bike list used for gear reconciliation.
func (c *Client) GetAthlete(ctx context.Context) (*Athlete, error) {
	var athlete Athlete
	if err := c.getJSON(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// GetActivities fetches one page of activity summaries after the given
// time.
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var activities []Activity
	if err := c.getJSON(ctx, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetAllActivities fetches all activities after a given time, handling
// pagination and rate limits.
func (c *Client) GetAllActivities(ctx context.Context, after time.Time) ([]Activity, error) {
	var all []Activity
	page := 1
	perPage := 100 // max allowed by Strava

	for {
		activities, err := c.GetActivities(ctx, after, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(activities) == 0 {
			break
		}
		all = append(all, activities...)
		if len(activities) < perPage {
			break // last page
		}
		page++
	}

	return all, nil
}

// GetActivityDetail fetches one activity with its segment efforts.
func (c *Client) GetActivityDetail(ctx context.Context, activityID int64) (*ActivityDetail, error) {
	var detail ActivityDetail
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.getJSON(ctx, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetRoutes fetches the athlete's most recent saved routes.
func (c *Client) GetRoutes(ctx context.Context, athleteID int64, perPage int) ([]Route, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))

	var routes []Route
	path := fmt.Sprintf("/athletes/%d/routes", athleteID)
	if err := c.getJSON(ctx, path, params, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// RateLimitStatus returns remaining request budget.
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
