// Package client is a typed HTTP client for the barasho API. It keeps the
// session cookie across calls and satisfies the player tracker's Saver
// interface, so a player frontend can drive progress tracking through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/core/progress"
	"github.com/dugsiiye/barasho/player/tracker"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

var _ tracker.Saver = (*Client)(nil)

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/login", body, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/profile", nil, &p)
	return p, err
}

func (c *Client) Course(ctx context.Context, courseID string) (course.Course, error) {
	var crs course.Course
	err := c.do(ctx, http.MethodGet, "/courses/"+courseID, nil, &crs)
	return crs, err
}

func (c *Client) CheckAccess(ctx context.Context, courseID string) (enrollment.AccessResult, error) {
	var res enrollment.AccessResult
	err := c.do(ctx, http.MethodGet, "/courses/"+courseID+"/access", nil, &res)
	return res, err
}

// Enroll runs a local balance pre-check before calling the authoritative
// operation, so an obviously failing attempt costs no enroll round trip.
// The server remains the authority: a stale pre-check pass still ends in a
// server-side rejection.
func (c *Client) Enroll(ctx context.Context, courseID string) (enrollment.EnrollResult, error) {
	p, err := c.Profile(ctx)
	if err != nil {
		return enrollment.EnrollResult{}, fmt.Errorf("fetching profile for pre-check: %w", err)
	}

	crs, err := c.Course(ctx, courseID)
	if err != nil {
		return enrollment.EnrollResult{}, fmt.Errorf("fetching course for pre-check: %w", err)
	}

	if p.Credits < crs.Price {
		return enrollment.EnrollResult{Success: false, Error: "Insufficient credits"}, nil
	}

	var res enrollment.EnrollResult
	if err := c.do(ctx, http.MethodPost, "/courses/"+courseID+"/enroll", nil, &res); err != nil {
		return enrollment.EnrollResult{}, err
	}
	return res, nil
}

func (c *Client) CourseProgress(ctx context.Context, courseID string) (progress.CourseProgress, error) {
	var agg progress.CourseProgress
	err := c.do(ctx, http.MethodGet, "/courses/"+courseID+"/progress", nil, &agg)
	return agg, err
}

// SaveProgress implements tracker.Saver.
func (c *Client) SaveProgress(ctx context.Context, videoID string, watchedPct, positionSec int) (tracker.SaveResult, error) {
	body := map[string]int{
		"watchedPercentage":   watchedPct,
		"lastPositionSeconds": positionSec,
	}

	var res tracker.SaveResult
	if err := c.do(ctx, http.MethodPut, "/videos/"+videoID+"/progress", body, &res); err != nil {
		return tracker.SaveResult{}, err
	}
	return res, nil
}

// LoadProgress implements tracker.Saver.
func (c *Client) LoadProgress(ctx context.Context, videoID string) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	if err := c.do(ctx, http.MethodGet, "/videos/"+videoID+"/progress", nil, &snap); err != nil {
		return tracker.Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) RecordPlay(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodPost, "/videos/"+videoID+"/play", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("%s %s: status %s", method, path, resp.Status)
		}
		return fmt.Errorf("%s %s: %s", method, path, er.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
