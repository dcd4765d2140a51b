package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeftJoin(t *testing.T) {
	personnel := []Record{
		{"personnel_id": "PER001", "full_name": "Ann"},
		{"personnel_id": "PER002", "full_name": "Bob"},
	}
	docs := []Record{
		{"document_id": "DOC001", "personnel_id": "PER001", "kind": "passport"},
		{"document_id": "DOC002", "personnel_id": "PER001", "kind": "visa"},
	}

	got := LeftJoin(personnel, docs, "personnel_id", "personnel_id", "document")

	require.Len(t, got, 2)
	assert.Equal(t, "passport", got[0].Related["document"]["kind"], "first match wins")
	assert.Equal(t, Record{}, got[1].Related["document"], "no match yields empty record")
	assert.Equal(t, personnel[1], got[1].Record)
}

func TestLeftJoin_EmptyKeyNeverMatches(t *testing.T) {
	primary := []Record{{"id": "1", "ref": ""}}
	secondary := []Record{{"ref": "", "x": "y"}}

	got := LeftJoin(primary, secondary, "ref", "ref", "other")
	assert.Empty(t, got[0].Related["other"])
}

func TestJoined_MarshalJSON(t *testing.T) {
	j := Joined{
		Record:  Record{"personnel_id": "PER001"},
		Related: map[string]Record{"company": {"name": "Acme"}},
	}

	data, err := json.Marshal(j)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	want := map[string]any{
		"personnel_id": "PER001",
		"company":      map[string]any{"name": "Acme"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MarshalJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_View(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	RegisterView(ViewDefinition{
		Name:    "people",
		Primary: "personnel",
		Joins: []JoinSpec{
			{Table: "companies", LocalKey: "company_id", ForeignKey: "company_id", As: "company"},
			{Table: "documents", LocalKey: "personnel_id", ForeignKey: "personnel_id", As: "document"},
		},
	})

	rows, err := e.svc.View(t.Context(), "people")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Acme", rows[0].Related["company"]["name"])
	assert.Equal(t, "DOC001", rows[0].Related["document"]["document_id"])
	assert.Equal(t, "Globex", rows[1].Related["company"]["name"])
	assert.Equal(t, "visa", rows[2].Related["document"]["kind"])
}

func TestService_View_Errors(t *testing.T) {
	e := newTestEnv(t, false)

	_, err := e.svc.View(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrUnknownView)

	RegisterView(ViewDefinition{Name: "broken", Primary: "personnel", Joins: []JoinSpec{{Table: "widgets", As: "w"}}})
	_, err = e.svc.View(t.Context(), "broken")
	assert.ErrorIs(t, err, ErrUnknownTable)

	e.grid.SetFault(func(op, target string) error {
		if op == "values" && target == "Documents" {
			return errors.New("backend error")
		}
		return nil
	})
	RegisterView(ViewDefinition{Name: "docs", Primary: "personnel", Joins: []JoinSpec{{Table: "documents", LocalKey: "personnel_id", ForeignKey: "personnel_id", As: "document"}}})
	_, err = e.svc.View(t.Context(), "docs")
	var rio *RemoteIOError
	assert.ErrorAs(t, err, &rio)
}
