/*
Copyright © 2025 the ADSim authors.
This file is part of ADSim.

ADSim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ADSim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ADSim.  If not, see <http://www.gnu.org/licenses/>.
*/

package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/processmodel/adsim"
)

// Describer produces a prose answer for a prompt. The production
// implementation is Client; tests substitute canned answers.
type Describer interface {
	Describe(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = `You are an anaerobic digestion process engineer.
Answer with a single JSON object mapping parameter names to
[value, unit, rationale] arrays. Use only ADM1 component and kinetic
parameter names. Do not suggest negative concentrations.`

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	URL    string // chat completion endpoint
	Model  string
	APIKey string

	HTTPClient *http.Client
	Log        logrus.FieldLogger
}

// NewClient returns a client for the given endpoint and model.
func NewClient(url, model, apiKey string) *Client {
	return &Client{
		URL:        url,
		Model:      model,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Log:        logrus.StandardLogger(),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Describe sends the prompt and returns the first answer. Transient
// transport failures and server errors are retried with exponential
// backoff; client errors are not.
func (c *Client) Describe(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	var answer string
	err = backoff.RetryNotify(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if c.APIKey != "" {
				req.Header.Set("Authorization", "Bearer "+c.APIKey)
			}
			resp, err := c.HTTPClient.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return err
			}
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 500 {
				return fmt.Errorf("assist: %s: %s", resp.Status, strings.TrimSpace(string(b)))
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("assist: %s: %s", resp.Status, strings.TrimSpace(string(b))))
			}
			var cr chatResponse
			if err := json.Unmarshal(b, &cr); err != nil {
				return backoff.Permanent(err)
			}
			if len(cr.Choices) == 0 {
				return backoff.Permanent(fmt.Errorf("assist: answer contains no choices"))
			}
			answer = cr.Choices[0].Message.Content
			return nil
		},
		backoff.WithContext(backoff.NewExponentialBackOff(), ctx),
		func(err error, d time.Duration) {
			c.logger().WithFields(logrus.Fields{
				"err":   err,
				"retry": d,
			}).Warn("assist request failed")
		},
	)
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

// Suggest asks the describer for parameter changes toward a process goal,
// given the current feedstock and kinetics, and parses the answer.
func Suggest(ctx context.Context, d Describer, goal string,
	f *adsim.FeedstockState, k *adsim.KineticParameterSet) (*Recommendation, error) {

	var b strings.Builder
	fmt.Fprintf(&b, "Process goal: %s\n\nCurrent feedstock [kg/m3 basis]:\n", goal)
	for _, id := range adsim.ComponentIDs() {
		v, err := f.Concentration(id)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "  %s = %g\n", id, v)
	}
	b.WriteString("\nCurrent kinetic parameters:\n")
	for _, name := range adsim.KineticParameterNames() {
		v, err := k.Value(name)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "  %s = %g\n", name, v)
	}
	b.WriteString("\nSuggest updated parameter values as a JSON object of " +
		"name: [value, unit, rationale] entries.")

	answer, err := d.Describe(ctx, b.String())
	if err != nil {
		return nil, err
	}
	return ParseRecommendation(answer)
}
