package apikey_test

import (
	"testing"

	"github.com/roastery-dev/roastery/pkg/iam/apikey"
)

func TestScopeValid(t *testing.T) {
	for _, scope := range []apikey.Scope{apikey.ScopeRead, apikey.ScopeWrite, apikey.ScopeDelete, apikey.ScopeAll} {
		if !scope.Valid() {
			t.Errorf("Valid(%s) = false, want true", scope)
		}
	}
	for _, scope := range []apikey.Scope{"", "bogus", "READ", "read "} {
		if scope.Valid() {
			t.Errorf("Valid(%q) = true, want false", scope)
		}
	}
}

func TestHasScope(t *testing.T) {
	key := apikey.APIKey{Scopes: []apikey.Scope{apikey.ScopeRead, apikey.ScopeWrite}}

	if !key.HasScope(apikey.ScopeRead) {
		t.Error("HasScope(read) = false for a read-granted key")
	}
	if key.HasScope(apikey.ScopeDelete) {
		t.Error("HasScope(delete) = true for a key without it")
	}

	// The all scope satisfies any check.
	root := apikey.APIKey{Scopes: []apikey.Scope{apikey.ScopeAll}}
	for _, want := range []apikey.Scope{apikey.ScopeRead, apikey.ScopeWrite, apikey.ScopeDelete} {
		if !root.HasScope(want) {
			t.Errorf("HasScope(%s) = false for an all-scoped key", want)
		}
	}
}
