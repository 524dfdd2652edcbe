package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

// TestDisclosureResultSentence verifies the three answer shapes.
func TestDisclosureResultSentence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result DisclosureResult
		want   string
	}{
		{
			name:   "at reference location",
			result: DisclosureResult{Kind: AtReferenceLocation, ReferenceName: "home"},
			want:   "Alice is at home.",
		},
		{
			name:   "away with distance",
			result: DisclosureResult{Kind: AwayWithDistance, Label: "Main St, Zurich, Switzerland", DistanceKm: 5},
			want:   "Alice is on Main St, Zurich, Switzerland, which is 5 kilometers away.",
		},
		{
			name:   "away without reference",
			result: DisclosureResult{Kind: AwayNoReference, Label: "Main St, Zurich, Switzerland"},
			want:   "Alice is on Main St, Zurich, Switzerland.",
		},
		{
			name:   "zero value renders nothing",
			result: DisclosureResult{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.result.Sentence("Alice"); got != tt.want {
				t.Errorf("Sentence() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDisclosureKindJSON verifies kinds are encoded by name.
func TestDisclosureKindJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(DisclosureResult{Kind: AwayWithDistance, Label: "x", DistanceKm: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"kind":"away_with_distance","label":"x","distance_km":3}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var decoded DisclosureResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != AwayWithDistance {
		t.Errorf("expected AwayWithDistance, got %v", decoded.Kind)
	}

	if _, err := ParseDisclosureKind("nowhere"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// TestDisclosureResultPlace verifies which place each kind reveals.
func TestDisclosureResultPlace(t *testing.T) {
	t.Parallel()

	at := DisclosureResult{Kind: AtReferenceLocation, ReferenceName: "office", Label: "ignored"}
	if at.Place() != "office" || at.NeedsLabel() {
		t.Errorf("unexpected at-reference place %q needsLabel=%v", at.Place(), at.NeedsLabel())
	}

	away := DisclosureResult{Kind: AwayNoReference, Label: "Bern, Switzerland"}
	if away.Place() != "Bern, Switzerland" || !away.NeedsLabel() {
		t.Errorf("unexpected away place %q needsLabel=%v", away.Place(), away.NeedsLabel())
	}
}

// TestLookup verifies lookup bookkeeping helpers.
func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("new lookup has not succeeded", func(t *testing.T) {
		t.Parallel()

		l := NewLookup("id-1", "alice")
		if l.Succeeded() {
			t.Error("expected fresh lookup to not be successful")
		}
		if l.Sentence() != "" {
			t.Errorf("expected empty sentence, got %q", l.Sentence())
		}
		if l.Duration() != 0 {
			t.Errorf("expected zero duration, got %v", l.Duration())
		}
	})

	t.Run("successful lookup renders matched name", func(t *testing.T) {
		t.Parallel()

		l := NewLookup("id-2", "alica")
		l.Resolved = &ResolvedUser{Record: UserLocationRecord{DisplayName: "Alicia"}, Score: 1}
		l.Result = &DisclosureResult{Kind: AtReferenceLocation, ReferenceName: "home"}
		l.FinishedAt = l.StartedAt.Add(2 * time.Second)

		if got := l.Sentence(); got != "Alicia is at home." {
			t.Errorf("Sentence() = %q", got)
		}
		if l.Duration() != 2*time.Second {
			t.Errorf("Duration() = %v", l.Duration())
		}
	})

	t.Run("fail records the message", func(t *testing.T) {
		t.Parallel()

		l := NewLookup("id-3", "bob")
		l.Result = &DisclosureResult{Kind: AwayNoReference, Label: "x"}
		l.Fail(errors.New("boom"))

		if l.Succeeded() {
			t.Error("expected failed lookup")
		}
		if l.ErrorMessage != "boom" {
			t.Errorf("ErrorMessage = %q", l.ErrorMessage)
		}
	})
}

// TestUserLocationRecordHasPosition verifies partial coordinates are not a position.
func TestUserLocationRecordHasPosition(t *testing.T) {
	t.Parallel()

	if (UserLocationRecord{Latitude: ptr(1)}).HasPosition() {
		t.Error("latitude alone is not a position")
	}
	if !(UserLocationRecord{Latitude: ptr(0), Longitude: ptr(0)}).HasPosition() {
		t.Error("0,0 is a valid position")
	}
}

// TestCredentialsComplete verifies both fields are required.
func TestCredentialsComplete(t *testing.T) {
	t.Parallel()

	if (Credentials{Username: "a@example.com"}).Complete() {
		t.Error("missing password should be incomplete")
	}
	if !(Credentials{Username: "a@example.com", Password: "pw"}).Complete() {
		t.Error("expected complete credentials")
	}
}
