// Package notify sends progress and completion notifications to the
// caller. Both are deliberately fire-and-forget: a transport failure is
// logged and otherwise ignored, and never interrupts the pipeline.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gameview/reconstruct/internal/logging"
	"github.com/gameview/reconstruct/internal/model"
)

const (
	callbackSuffix = "/api/processing/callback"
	progressSuffix = "/api/processing/progress"
)

type Client struct {
	CallbackURL string
	HTTP        *http.Client
	Log         *logging.Logger
}

func New(callbackURL string, log *logging.Logger) *Client {
	return &Client{
		CallbackURL: callbackURL,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		Log:         log,
	}
}

// progressURL derives the progress endpoint from the callback URL.
func progressURL(callbackURL string) string {
	return strings.Replace(callbackURL, callbackSuffix, progressSuffix, 1)
}

type progressBody struct {
	ProductionID string `json:"productionId"`
	Stage        string `json:"stage"`
	Progress     int    `json:"progress"`
	Message      string `json:"message"`
}

// Progress posts one progress checkpoint. No delivery or ordering guarantee
// is made; callers keep percentages monotonic at the call site.
func (c *Client) Progress(productionID, stage string, percent int, message string) {
	if c.CallbackURL == "" {
		return
	}
	body := progressBody{
		ProductionID: productionID,
		Stage:        stage,
		Progress:     percent,
		Message:      message,
	}
	if err := c.post(progressURL(c.CallbackURL), body, c.HTTP); err != nil {
		c.Log.Warn("[%s] progress update failed: %v", productionID, err)
		return
	}
	c.Log.Debug("[%s] progress: %s %d%%", productionID, stage, percent)
}

// Complete posts the result envelope to the callback URL. The job's outcome
// was decided before this call; a delivery failure does not change it.
func (c *Client) Complete(env model.ResultEnvelope) {
	if c.CallbackURL == "" {
		return
	}
	client := &http.Client{Timeout: 30 * time.Second}
	if err := c.post(c.CallbackURL, env, client); err != nil {
		c.Log.Warn("[%s] callback failed: %v", env.ProductionID, err)
		return
	}
	c.Log.Info("[%s] callback delivered", env.ProductionID)
}

func (c *Client) post(url string, v any, client *http.Client) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
