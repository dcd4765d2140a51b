package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCascade fills the test tables with two companies, their personnel,
// documents and company documents.
func seedCascade(e *testEnv) {
	e.grid.Seed("Companies", [][]string{
		{"company_id", "name"},
		{"CMP001", "Acme"},
		{"CMP002", "Globex"},
	})
	e.grid.Seed("Personnel", [][]string{
		{"personnel_id", "company_id", "full_name"},
		{"PER001", "CMP001", "Ann"},
		{"PER002", "CMP002", "Bob"},
		{"PER003", "CMP001", "Cid"},
	})
	e.grid.Seed("Documents", [][]string{
		{"document_id", "personnel_id", "kind"},
		{"DOC001", "PER001", "passport"},
		{"DOC002", "PER002", "passport"},
		{"DOC003", "PER003", "visa"},
	})
	e.grid.Seed("CompanyDocuments", [][]string{
		{"document_id", "company_id", "title"},
		{"CDC001", "CMP002", "License"},
		{"CDC002", "CMP001", "Insurance"},
	})
}

func column(rows [][]string, i int) []string {
	var out []string
	for _, r := range rows[1:] {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out
}

func TestCascade_Completeness(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	assert.Equal(t, []string{"CMP002"}, column(e.grid.Rows("Companies"), 0))
	assert.NotContains(t, column(e.grid.Rows("Personnel"), 1), "CMP001")
	assert.NotContains(t, column(e.grid.Rows("CompanyDocuments"), 1), "CMP001")

	// Grandchildren of the deleted personnel go too.
	assert.Equal(t, []string{"DOC002"}, column(e.grid.Rows("Documents"), 0))

	assert.Equal(t, map[string]int{
		"companies":         1,
		"personnel":         2,
		"documents":         2,
		"company_documents": 1,
	}, report.Deleted)
}

func TestCascade_DependentsBeforeParent(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	var order []string
	e.grid.SetFault(func(op, target string) error {
		if op == "delete" {
			order = append(order, target)
		}
		return nil
	})

	_, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	require.NotEmpty(t, order)
	assert.Equal(t, "Companies", order[len(order)-1])
	assert.Less(t, indexOfString(order, "Documents"), indexOfString(order, "Personnel"))
}

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestCascade_ContinuesPastDependentFailure(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	e.grid.SetFault(func(op, target string) error {
		if op == "delete" && target == "Personnel" {
			return errors.New("quota exceeded")
		}
		return nil
	})

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, "personnel", report.Failures[0].Table)
	assert.Equal(t, "company_id", report.Failures[0].Field)

	// The other dependents and the parent are still removed.
	assert.Equal(t, []string{"CMP002"}, column(e.grid.Rows("Companies"), 0))
	assert.Equal(t, []string{"CDC001"}, column(e.grid.Rows("CompanyDocuments"), 0))

	perr := report.Err("Companies", "CMP001")
	var partial *PartialCascadeError
	require.ErrorAs(t, perr, &partial)
	assert.Len(t, partial.Failures, 1)
}

func TestCascade_ParentMissingLeavesTables(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	before := map[string][][]string{}
	for _, name := range []string{"Companies", "Personnel", "Documents", "CompanyDocuments"} {
		before[name] = e.grid.Rows(name)
	}

	_, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP404")
	assert.ErrorIs(t, err, ErrNotFound)

	for name, rows := range before {
		assert.Equal(t, rows, e.grid.Rows(name), name)
		assert.Empty(t, e.grid.DeleteBatches(name), name)
	}
}

func TestCascade_ParentDeleteFailure(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	e.grid.SetFault(func(op, target string) error {
		if op == "delete" && target == "Companies" {
			return errors.New("backend error")
		}
		return nil
	})

	_, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")

	var rio *RemoteIOError
	require.ErrorAs(t, err, &rio)
	assert.Equal(t, []string{"CMP001", "CMP002"}, column(e.grid.Rows("Companies"), 0))
}

func TestCascade_DepthLimit(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	e.svc.cascade = NewCascader(e.svc.store, testRules, 1)

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	// Depth 1 removes direct dependents only.
	assert.NotContains(t, column(e.grid.Rows("Personnel"), 1), "CMP001")
	assert.Len(t, column(e.grid.Rows("Documents"), 0), 3)
	assert.Zero(t, report.Deleted["documents"])

	// The grandchildren left behind are reported.
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "documents", report.Failures[0].Table)
	assert.ErrorIs(t, report.Err("Companies", "CMP001"), ErrCascadeDepth)
}

func TestCascade_DepthLimitWithoutChildren(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)
	e.svc.cascade = NewCascader(e.svc.store, testRules, 1)

	// CMP003 has no personnel, so nothing is left behind.
	e.grid.Seed("Companies", [][]string{{"company_id", "name"}, {"CMP003", "Initech"}})

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP003")
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
}

func TestCascade_ContinuesPastDependentReadFailure(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	personnelReads := 0
	e.grid.SetFault(func(op, target string) error {
		if op == "values" && target == "Personnel" {
			personnelReads++
			if personnelReads == 1 {
				return errors.New("connection reset")
			}
		}
		return nil
	})

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	// Only the grandchild step is lost; the personnel rows still go.
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "documents", report.Failures[0].Table)
	assert.Equal(t, "personnel_id", report.Failures[0].Field)
	var rio *RemoteIOError
	assert.ErrorAs(t, report.Failures[0].Err, &rio)

	assert.Equal(t, 2, personnelReads)
	assert.Equal(t, []string{"CMP002"}, column(e.grid.Rows("Personnel"), 1))
	assert.Equal(t, 2, report.Deleted["personnel"])
	assert.Len(t, column(e.grid.Rows("Documents"), 0), 3)
	assert.Equal(t, []string{"CMP002"}, column(e.grid.Rows("Companies"), 0))
}

func TestCascade_ReportsRemovedRows(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	report, err := e.svc.cascade.Delete(t.Context(), "companies", "CMP001")
	require.NoError(t, err)

	removed := report.Removed["personnel"]
	require.Len(t, removed, 2)
	assert.Equal(t, "PER001", removed[0].Before["personnel_id"])
	assert.Equal(t, 1, removed[0].Ordinal)
	assert.Equal(t, "PER003", removed[1].Before["personnel_id"])
	assert.Equal(t, 3, removed[1].Ordinal)
	assert.Len(t, report.Removed["documents"], 2)
	assert.NotContains(t, report.Removed, "companies")
}

func TestCascade_NoRules(t *testing.T) {
	e := newTestEnv(t, false)
	seedCascade(e)

	report, err := e.svc.cascade.Delete(t.Context(), "documents", "DOC001")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"documents": 1}, report.Deleted)
	assert.Equal(t, []string{"DOC002", "DOC003"}, column(e.grid.Rows("Documents"), 0))
}
