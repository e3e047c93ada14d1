package models

import (
	"errors"
	"testing"
)

func TestRunReport_Counts(t *testing.T) {
	report := NewRunReport("collect_symbols")
	report.AddSuccess("/indices/nifty-50", "50 constituents stored")
	report.AddSkip("DELISTED", "no trailing P/E available")
	report.AddFailure("/indices/nifty-500", errors.New("page unreachable"))
	report.Finish()

	if report.Operation != "collect_symbols" {
		t.Errorf("unexpected operation %q", report.Operation)
	}
	if report.Succeeded != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", report.Succeeded, report.Skipped, report.Failed)
	}
	if report.Total() != 3 {
		t.Errorf("expected total 3, got %d", report.Total())
	}
	if len(report.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(report.Items))
	}
	if report.Items[1].Status != ItemSkipped {
		t.Errorf("expected second item skipped, got %s", report.Items[1].Status)
	}
	if report.Items[2].Detail != "page unreachable" {
		t.Errorf("expected failure detail to carry the error, got %q", report.Items[2].Detail)
	}
	if report.DurationMs < 0 {
		t.Errorf("expected non-negative duration, got %d", report.DurationMs)
	}
}

func TestRunReport_NilFailure(t *testing.T) {
	report := NewRunReport("op")
	report.AddFailure("item", nil)

	if report.Items[0].Detail != "" {
		t.Errorf("expected empty detail for nil error, got %q", report.Items[0].Detail)
	}
}
