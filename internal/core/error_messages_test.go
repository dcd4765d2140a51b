package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns default",
			err:      nil,
			wantCode: "ERR000",
		},
		{
			name:     "not found maps correctly",
			err:      &NotFoundError{Table: "Companies", Field: "company_id", Value: "CMP009"},
			wantCode: "ROW001",
		},
		{
			name:     "wrapped not found maps correctly",
			err:      fmt.Errorf("load: %w", &NotFoundError{Table: "T"}),
			wantCode: "ROW001",
		},
		{
			name:     "unknown table maps correctly",
			err:      fmt.Errorf("%w: widgets", ErrUnknownTable),
			wantCode: "ROW002",
		},
		{
			name:     "unknown view maps correctly",
			err:      fmt.Errorf("%w: widgets", ErrUnknownView),
			wantCode: "ROW003",
		},
		{
			name:     "schema error maps correctly",
			err:      &SchemaError{Table: "T", Reason: "empty header row"},
			wantCode: "SCH001",
		},
		{
			name:     "validation error maps correctly",
			err:      &ValidationError{Table: "T", Fields: []string{"name"}},
			wantCode: "VAL001",
		},
		{
			name:     "partial cascade maps correctly",
			err:      &PartialCascadeError{Table: "T", ID: "1", Failures: []CascadeFailure{{Table: "x", Err: errors.New("boom")}}},
			wantCode: "CAS001",
		},
		{
			name:     "remote unauthorized maps correctly",
			err:      &RemoteIOError{Op: "read", Table: "T", Err: errors.New("googleapi: Error 401: Request had invalid authentication credentials")},
			wantCode: "RIO001",
		},
		{
			name:     "remote quota maps correctly",
			err:      &RemoteIOError{Op: "add", Table: "T", Err: errors.New("googleapi: Error 429: Quota exceeded")},
			wantCode: "RIO002",
		},
		{
			name:     "remote timeout maps correctly",
			err:      &RemoteIOError{Op: "read", Table: "T", Err: errors.New("context deadline exceeded")},
			wantCode: "RIO003",
		},
		{
			name:     "other remote failure maps to unavailable",
			err:      &RemoteIOError{Op: "read", Table: "T", Err: errors.New("connection reset by peer")},
			wantCode: "RIO004",
		},
		{
			name:     "untyped auth failure maps correctly",
			err:      errors.New("oauth2: token expired and refresh token is not set: not authenticated"),
			wantCode: "RIO001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("something completely unexpected"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("MapError() returned incomplete message: %+v", got)
			}
		})
	}
}

func TestMapError_ValidationListsFields(t *testing.T) {
	got := MapError(&ValidationError{Table: "T", Fields: []string{"name", "email"}})
	want := "Required field is empty: name, email"
	if got.Message != want {
		t.Errorf("MapError() message = %q, want %q", got.Message, want)
	}
}

func TestRemotePatternsHaveCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range remotePatterns {
		if ep.msg.Code == "" {
			t.Errorf("pattern %v has no code", ep.patterns)
		}
		if seen[ep.msg.Code] {
			t.Errorf("duplicate code %s", ep.msg.Code)
		}
		seen[ep.msg.Code] = true
		if len(ep.patterns) == 0 {
			t.Errorf("code %s has no patterns", ep.msg.Code)
		}
	}
}
