package services

import (
	"testing"

	"decorly/models"
)

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(models.StatusAssigned)
	if !ok || next != models.StatusConfirmed {
		t.Fatalf("expected Confirmed after Assigned, got %q ok=%v", next, ok)
	}

	next, ok = NextStatus(models.StatusConfirmed)
	if !ok || next != models.StatusCompleted {
		t.Fatalf("expected Completed after Confirmed, got %q ok=%v", next, ok)
	}

	if _, ok := NextStatus(models.StatusCompleted); ok {
		t.Fatal("Completed must be terminal")
	}
	if _, ok := NextStatus("bogus"); ok {
		t.Fatal("unknown status must have no successor")
	}
}

func TestValidTransitionExactMatchOnly(t *testing.T) {
	if !ValidTransition(models.StatusAssigned, models.StatusConfirmed) {
		t.Fatal("Assigned -> Confirmed must be allowed")
	}
	if ValidTransition(models.StatusAssigned, models.StatusCompleted) {
		t.Fatal("Assigned -> Completed skips a step and must be rejected")
	}
	if ValidTransition(models.StatusConfirmed, models.StatusAssigned) {
		t.Fatal("regression must be rejected")
	}
	if ValidTransition(models.StatusCompleted, models.StatusConfirmed) {
		t.Fatal("terminal state must reject every transition")
	}
}
