package tables

import (
	"testing"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

func TestCascadeRulesReferenceRegisteredTables(t *testing.T) {
	for parent, deps := range Cascades {
		pdef, ok := core.Get(parent)
		if !ok {
			t.Errorf("cascade parent %q is not registered", parent)
			continue
		}
		for _, dep := range deps {
			def, ok := core.Get(dep.Table)
			if !ok {
				t.Errorf("%s: dependent %q is not registered", parent, dep.Table)
				continue
			}
			if !hasHeader(def.Table.Headers, dep.Field) {
				t.Errorf("%s: dependent %s has no column %q", parent, dep.Table, dep.Field)
			}
			if dep.Field != pdef.Table.IDField {
				t.Errorf("%s: dependent %s field %q does not match parent id %q", parent, dep.Table, dep.Field, pdef.Table.IDField)
			}
		}
	}
}

func TestDefinitionsAreConsistent(t *testing.T) {
	if got := core.TableCount(); got != 7 {
		t.Errorf("TableCount = %d, want 7", got)
	}

	for _, def := range core.All() {
		if len(def.Table.Headers) == 0 || def.Table.Headers[0] != def.Table.IDField {
			t.Errorf("%s: id field %q must be the first header", def.Key, def.Table.IDField)
		}
		for _, f := range def.Required {
			if !hasHeader(def.Table.Headers, f) {
				t.Errorf("%s: required field %q not in headers", def.Key, f)
			}
		}
		if def.Folder != nil && !hasHeader(def.Table.Headers, def.Folder.DisplayField) {
			t.Errorf("%s: folder display field %q not in headers", def.Key, def.Folder.DisplayField)
		}
	}
}

func TestViewsReferenceRegisteredTables(t *testing.T) {
	for _, v := range core.Views() {
		pdef, ok := core.Get(v.Primary)
		if !ok {
			t.Errorf("view %s: primary %q is not registered", v.Name, v.Primary)
			continue
		}
		for _, j := range v.Joins {
			def, ok := core.Get(j.Table)
			if !ok {
				t.Errorf("view %s: join table %q is not registered", v.Name, j.Table)
				continue
			}
			if !hasHeader(pdef.Table.Headers, j.LocalKey) {
				t.Errorf("view %s: %s has no column %q", v.Name, v.Primary, j.LocalKey)
			}
			if !hasHeader(def.Table.Headers, j.ForeignKey) {
				t.Errorf("view %s: %s has no column %q", v.Name, j.Table, j.ForeignKey)
			}
		}
	}
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
