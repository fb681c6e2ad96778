package validation

import "testing"

func TestNewReport(t *testing.T) {
	r := NewReport()
	if !r.Valid {
		t.Error("new report should be valid")
	}
	if len(r.Errors) != 0 || len(r.Warnings) != 0 || len(r.Info) != 0 {
		t.Error("new report should have empty slices")
	}
}

func TestAddError(t *testing.T) {
	r := NewReport()
	r.AddError(Result{
		Level:   LevelPlan,
		Message: "unrecognized plan shape",
	})
	if r.Valid {
		t.Error("report with error should be invalid")
	}
	if len(r.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(r.Errors))
	}
	if r.Errors[0].Severity != SeverityError {
		t.Error("AddError should set severity to error")
	}
	if r.Summary != "1 errors, 0 warnings, 0 info" {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
}

func TestWarningsAndInfoKeepReportValid(t *testing.T) {
	r := NewReport()
	r.AddWarning(Result{Level: LevelPlacement, Message: "nudged structure"})
	r.AddInfo(Result{Level: LevelPlacement, Message: "placed 4 decorations"})
	if !r.Valid {
		t.Error("warnings and info should not invalidate report")
	}
	if r.Warnings[0].Severity != SeverityWarning {
		t.Error("AddWarning should set severity to warning")
	}
	if r.Info[0].Severity != SeverityInfo {
		t.Error("AddInfo should set severity to info")
	}
}

func TestMerge(t *testing.T) {
	a := NewReport()
	a.AddWarning(Result{Level: LevelPlan, Message: "dropped ground cover prompt"})

	b := NewReport()
	b.AddError(Result{Level: LevelPlacement, Message: "missing target"})
	b.AddInfo(Result{Level: LevelPlacement, Message: "resolved 3 structures"})

	a.Merge(b)
	if a.Valid {
		t.Error("merging an invalid report should invalidate")
	}
	if len(a.Errors) != 1 || len(a.Warnings) != 1 || len(a.Info) != 1 {
		t.Errorf("unexpected merged counts: %s", a.Summary)
	}

	// Merging nil is a no-op.
	a.Merge(nil)
	if len(a.Errors) != 1 {
		t.Error("merging nil changed the report")
	}
}
