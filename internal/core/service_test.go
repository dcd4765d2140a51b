package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/JonMunkholm/sheetdocs/internal/remote"
)

func TestService_CreateValidation(t *testing.T) {
	e := newTestEnv(t, false)

	_, err := e.svc.Create(t.Context(), "personnel", Record{"full_name": "Ann"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"company_id"}, ve.Fields)
	assert.Len(t, e.grid.Rows("Personnel"), 1, "nothing written")
}

func TestService_Create(t *testing.T) {
	e := newTestEnv(t, false)

	res, err := e.svc.Create(t.Context(), "companies", Record{"name": "Acme"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Company CMP001 created", res.Message)
	assert.Equal(t, Record{"company_id": "CMP001", "name": "Acme"}, res.Data)
}

func TestService_UnknownTable(t *testing.T) {
	e := newTestEnv(t, false)

	_, err := e.svc.List(t.Context(), "widgets")
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = e.svc.Create(t.Context(), "widgets", Record{})
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = e.svc.Delete(t.Context(), "widgets", "1")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestService_UpdatePatchValidation(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	// Omitted required fields are kept from the stored row.
	res, err := e.svc.Update(t.Context(), "personnel", "PER001", Record{"full_name": "Anne"})
	require.NoError(t, err)
	assert.Equal(t, "CMP001", res.Data.(Record)["company_id"])

	// Blanking a required field is rejected.
	_, err = e.svc.Update(t.Context(), "personnel", "PER001", Record{"full_name": ""})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestService_GetAndUpdateNotFound(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	rec, err := e.svc.Get(t.Context(), "companies", "CMP002")
	require.NoError(t, err)
	assert.Equal(t, "Globex", rec["name"])

	_, err = e.svc.Update(t.Context(), "companies", "CMP404", Record{"name": "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeletePartialCascade(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	e.grid.SetFault(func(op, target string) error {
		if op == "delete" && target == "CompanyDocuments" {
			return errors.New("quota exceeded")
		}
		return nil
	})

	res, err := e.svc.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.Warning, "partial cascade")
	report, ok := res.Data.(*CascadeReport)
	require.True(t, ok)
	assert.Len(t, report.Failures, 1)
}

func TestService_DeleteMany(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	res, err := e.svc.DeleteMany(t.Context(), "documents", "kind", "passport")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"deleted": 2}, res.Data)
	assert.Equal(t, []string{"DOC003"}, column(e.grid.Rows("Documents"), 0))

	_, err = e.svc.DeleteMany(t.Context(), "documents", "", "x")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

// fakeAuth records the token it was rebound with.
type fakeAuth struct {
	token string
}

func (f *fakeAuth) IsAuthenticated() bool { return f.token != "" }

func (f *fakeAuth) AuthorizedClient() (oauth2.TokenSource, error) {
	if f.token == "" {
		return nil, remote.ErrNotAuthenticated
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: f.token}), nil
}

func (f *fakeAuth) Rebind(token string) { f.token = token }

// rebindRecorder is a table client that remembers rebinding.
type rebindRecorder struct {
	*remote.MemoryGrid
	rebound bool
}

func (r *rebindRecorder) Rebind(context.Context, oauth2.TokenSource) error {
	r.rebound = true
	return nil
}

func TestService_Rebind(t *testing.T) {
	setupRegistry(t)
	auth := &fakeAuth{}
	grid := &rebindRecorder{MemoryGrid: newTestGrid()}
	svc := NewService(grid, remote.NewMemoryFolders(), Options{Auth: auth})

	assert.False(t, svc.Authenticated())

	require.NoError(t, svc.Rebind(t.Context(), "ya29.token"))
	assert.True(t, svc.Authenticated())
	assert.True(t, grid.rebound)
}

func TestService_RebindWithoutSupport(t *testing.T) {
	setupRegistry(t)
	svc := NewService(newTestGrid(), remote.NewMemoryFolders(), Options{})

	assert.True(t, svc.Authenticated())
	assert.Error(t, svc.Rebind(t.Context(), "token"))
}
