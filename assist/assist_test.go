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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/processmodel/adsim"
)

func TestParseRecommendationFenced(t *testing.T) {
	answer := "Here is my suggestion:\n```json\n" +
		`{"X_ch": [8.0, "kg COD/m3", "more carbohydrate feed"],` +
		`"k_ac": [6.5, "1/d", "conservative acetoclastic rate"]}` +
		"\n```\nLet me know how the run goes."
	rec, err := ParseRecommendation(answer)
	if err != nil {
		t.Fatal(err)
	}
	if v := rec.Feedstock["X_ch"]; v != 8.0 {
		t.Errorf("X_ch = %g, want 8.0", v)
	}
	if v := rec.Kinetics["k_ac"]; v != 6.5 {
		t.Errorf("k_ac = %g, want 6.5", v)
	}
	if u := rec.Units["X_ch"]; u != "kg COD/m3" {
		t.Errorf("X_ch unit = %q", u)
	}
	if why := rec.Rationale["k_ac"]; !strings.Contains(why, "acetoclastic") {
		t.Errorf("k_ac rationale = %q", why)
	}
}

func TestParseRecommendationBareJSON(t *testing.T) {
	rec, err := ParseRecommendation(`The object {"S_su": [1.5]} covers it.`)
	if err != nil {
		t.Fatal(err)
	}
	if v := rec.Feedstock["S_su"]; v != 1.5 {
		t.Errorf("S_su = %g, want 1.5", v)
	}
}

func TestParseRecommendationRejects(t *testing.T) {
	if _, err := ParseRecommendation("no structured content at all"); err == nil {
		t.Error("prose-only answer did not fail")
	}
	if _, err := ParseRecommendation(`{"S_magic": [1.0]}`); err == nil {
		t.Error("unknown parameter name did not fail")
	}
	var pe adsim.InvalidParameterError
	if _, err := ParseRecommendation(`{"S_magic": [1.0]}`); !errors.As(err, &pe) {
		t.Errorf("got %v, want InvalidParameterError", err)
	}
	if _, err := ParseRecommendation(`{"S_su": ["plenty"]}`); err == nil {
		t.Error("non-numeric value did not fail")
	}
	if _, err := ParseRecommendation(`{}`); err == nil {
		t.Error("empty object did not fail")
	}
}

func TestApply(t *testing.T) {
	rec := &Recommendation{
		Feedstock: map[string]float64{"X_pr": 15},
		Kinetics:  map[string]float64{"Y_su": 0.09},
	}
	f := adsim.NewFeedstockState()
	k := adsim.NewKineticParameterSet()
	if err := rec.Apply(f, k); err != nil {
		t.Fatal(err)
	}
	if v, _ := f.Concentration("X_pr"); v != 15 {
		t.Errorf("X_pr = %g, want 15", v)
	}
	if v, _ := k.Value("Y_su"); v != 0.09 {
		t.Errorf("Y_su = %g, want 0.09", v)
	}

	bad := &Recommendation{Feedstock: map[string]float64{"X_pr": -1}}
	if err := bad.Apply(f, k); err == nil {
		t.Error("negative recommendation did not fail validation")
	}
}

func chatAnswer(content string) string {
	b, _ := json.Marshal(chatResponse{Choices: []struct {
		Message chatMessage `json:"message"`
	}{{Message: chatMessage{Role: "assistant", Content: content}}}})
	return string(b)
}

func TestClientDescribe(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			// First attempt fails transiently.
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, chatAnswer(`{"S_su": [2.0, "kg COD/m3", "richer feed"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "sk-test")
	answer, err := c.Describe(context.Background(), "increase methane yield")
	if err != nil {
		t.Fatal(err)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2 (one retry)", requests)
	}
	rec, err := ParseRecommendation(answer)
	if err != nil {
		t.Fatal(err)
	}
	if v := rec.Feedstock["S_su"]; v != 2.0 {
		t.Errorf("S_su = %g, want 2.0", v)
	}
}

func TestClientDescribeClientErrorIsPermanent(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-model", "wrong")
	if _, err := c.Describe(context.Background(), "prompt"); err == nil {
		t.Fatal("unauthorized request did not fail")
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (no retries on 4xx)", requests)
	}
}

// cannedDescriber returns a fixed answer without any network access.
type cannedDescriber string

func (d cannedDescriber) Describe(context.Context, string) (string, error) {
	return string(d), nil
}

func TestSuggest(t *testing.T) {
	d := cannedDescriber("```json\n{\"X_li\": [7.5, \"kg COD/m3\", \"lipid-rich substrate\"]}\n```")
	rec, err := Suggest(context.Background(), d, "maximize methane",
		adsim.NewFeedstockState(), adsim.NewKineticParameterSet())
	if err != nil {
		t.Fatal(err)
	}
	if v := rec.Feedstock["X_li"]; v != 7.5 {
		t.Errorf("X_li = %g, want 7.5", v)
	}
}
