// Package waiter blocks until no proxied hound instance reports that it is
// still starting up. Deployment scripts run it before shifting traffic.
package waiter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	cserrors "git.home.luguber.info/inful/codesearch/internal/errors"
	"git.home.luguber.info/inful/codesearch/internal/logfields"
	"git.home.luguber.info/inful/codesearch/internal/proxy"
)

// DefaultHealthURL is the proxy's health endpoint on its standard port.
const DefaultHealthURL = "http://localhost:3002/_health.json"

// Waiter polls a health endpoint until every instance has started.
type Waiter struct {
	HealthURL string
	// Name identifies this waiter in logs when several run concurrently.
	Name     string
	Client   *http.Client
	MinDelay time.Duration
	MaxDelay time.Duration
}

// New creates a Waiter with the production poll delays.
func New(healthURL, name string) *Waiter {
	if name == "" {
		name = "unknown"
	}
	return &Waiter{
		HealthURL: healthURL,
		Name:      name,
		Client:    &http.Client{Timeout: 10 * time.Second},
		MinDelay:  5 * time.Second,
		MaxDelay:  20 * time.Second,
	}
}

// Wait polls until no instance reports "starting up". A health fetch
// failure aborts the wait.
func (w *Waiter) Wait(ctx context.Context) error {
	for {
		states, err := w.fetchHealth(ctx)
		if err != nil {
			return err
		}

		starting := startingUp(states)
		if len(starting) == 0 {
			slog.Info("All hound instances are up", slog.String("instance", w.Name))
			return nil
		}

		slog.Info("Sleeping while waiting for instances",
			slog.String("instance", w.Name),
			slog.String("waiting_for", strings.Join(starting, ", ")))

		// Random skew so concurrent waiters do not poll in lockstep.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.delay()):
		}
	}
}

func (w *Waiter) fetchHealth(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.HealthURL, nil)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "building health request").
			WithContext(logfields.KeyURL, w.HealthURL)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "fetching instance health").
			WithContext(logfields.KeyURL, w.HealthURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, cserrors.New(cserrors.CategoryFetch, cserrors.SeverityError,
			fmt.Sprintf("health endpoint returned status %d", resp.StatusCode)).
			WithContext(logfields.KeyURL, w.HealthURL)
	}

	var states map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, cserrors.WrapError(err, cserrors.CategoryFetch, "decoding health response").
			WithContext(logfields.KeyURL, w.HealthURL)
	}
	return states, nil
}

func (w *Waiter) delay() time.Duration {
	if w.MaxDelay <= w.MinDelay {
		return w.MinDelay
	}
	return w.MinDelay + rand.N(w.MaxDelay-w.MinDelay)
}

func startingUp(states map[string]string) []string {
	var names []string
	for name, state := range states {
		if state == proxy.StateStartingUp {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
