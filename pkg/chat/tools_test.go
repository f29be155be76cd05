package chat

import (
	"context"
	"testing"
)

func TestSearchInventoryFiltersByQuery(t *testing.T) {
	out, err := searchInventory(context.Background(), map[string]interface{}{"query": "Deluxe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "No matching items found." {
		t.Errorf("expected a match for 'Deluxe', got %q", out)
	}
}

func TestSearchInventoryNoMatch(t *testing.T) {
	out, err := searchInventory(context.Background(), map[string]interface{}{"query": "nonexistent-widget"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "No matching items found." {
		t.Errorf("expected no-match message, got %q", out)
	}
}

func TestBookAppointmentRequiresFields(t *testing.T) {
	_, err := bookAppointment(context.Background(), map[string]interface{}{"customer_name": "Jo"})
	if err == nil {
		t.Error("expected error when phone_number/preferred_date are missing")
	}
}

func TestBookAppointmentSucceeds(t *testing.T) {
	out, err := bookAppointment(context.Background(), map[string]interface{}{
		"customer_name":  "Jo",
		"phone_number":   "555-1234",
		"preferred_date": "2026-08-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Error("expected a non-empty booking confirmation")
	}
}

func TestGetBusinessHoursKnownDay(t *testing.T) {
	out, err := getBusinessHours(context.Background(), map[string]interface{}{"day": "monday"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty hours")
	}
}

func TestGetBusinessHoursUnknownDay(t *testing.T) {
	if _, err := getBusinessHours(context.Background(), map[string]interface{}{"day": "someday"}); err == nil {
		t.Error("expected error for unknown day")
	}
}

func TestDefaultToolCatalogHasExpectedTools(t *testing.T) {
	names := map[string]bool{}
	for _, d := range DefaultToolCatalog() {
		names[d.Name] = true
	}
	for _, want := range []string{"search_inventory", "book_appointment", "get_business_hours", "transfer_to_agent"} {
		if !names[want] {
			t.Errorf("expected tool catalog to contain %q", want)
		}
	}
}
