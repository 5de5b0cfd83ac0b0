package state_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-params/pkg/state"
)

type identifierFixture struct {
	Description string           `json:"description"`
	Cases       []identifierCase `json:"cases"`
}

type identifierCase struct {
	Name   string        `json:"name"`
	Ref    identifierRef `json:"ref"`
	Expect expectValue   `json:"expect"`
}

type identifierRef struct {
	Domain string       `json:"domain"`
	Scope  fixtureScope `json:"scope"`
}

type fixtureScope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata"`
}

type expectValue struct {
	Value string `json:"value"`
	Err   string `json:"err"`
}

func TestRefIdentifierContracts(t *testing.T) {
	fx := loadFixture[identifierFixture](t, "state_identifier.json")
	if len(fx.Cases) == 0 {
		t.Fatalf("fixture has no cases")
	}
	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			ref := state.Ref{
				Domain: tc.Ref.Domain,
				Scope:  state.NewScope(tc.Ref.Scope.Name, tc.Ref.Scope.Priority, state.WithScopeMetadata(tc.Ref.Scope.Metadata)),
			}
			got, err := ref.Identifier()

			if tc.Expect.Err != "" {
				if err == nil {
					t.Fatalf("expected error %q but got nil", tc.Expect.Err)
				}
				if err.Error() != tc.Expect.Err {
					t.Fatalf("expected error %q, got %q", tc.Expect.Err, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.Expect.Value {
				t.Fatalf("expected %q, got %q", tc.Expect.Value, got)
			}
		})
	}
}

func TestScopeHelpersMatchIdentifiers(t *testing.T) {
	cases := map[string]state.Scope{
		"system/prefs":    state.SystemScope(),
		"tenant/t1/prefs": state.TenantScope("t1"),
		"org/o1/prefs":    state.OrgScope("o1"),
		"team/blue/prefs": state.TeamScope("blue"),
		"user/u42/prefs":  state.UserScope("u42"),
	}
	for want, scope := range cases {
		got, err := state.Ref{Domain: "prefs", Scope: scope}.Identifier()
		if err != nil || got != want {
			t.Fatalf("expected %q, got %q (%v)", want, got, err)
		}
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to locate fixture directory")
	}
	fixturePath := filepath.Join(filepath.Dir(filename), "..", "..", "testdata", name)
	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", fixturePath, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", fixturePath, err)
	}
	return out
}
