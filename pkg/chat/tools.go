package chat

import (
	"context"
	"fmt"
	"strings"
)

// ToolDefinition describes a single callable tool: its name, a natural
// language description, and a JSON-schema input shape, plus the function
// that executes it. Input schemas follow the same object-with-properties
// shape the chat provider's function-calling API expects.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input map[string]interface{}) (string, error)
}

type inventoryItem struct {
	ID       string
	Name     string
	Category string
	Price    float64
	InStock  bool
}

var mockInventory = []inventoryItem{
	{ID: "sku-100", Name: "Standard Service Package", Category: "service", Price: 89.00, InStock: true},
	{ID: "sku-101", Name: "Premium Service Package", Category: "service", Price: 149.00, InStock: true},
	{ID: "sku-200", Name: "Compact Unit", Category: "inventory", Price: 1200.00, InStock: true},
	{ID: "sku-201", Name: "Deluxe Unit", Category: "inventory", Price: 2400.00, InStock: false},
	{ID: "sku-202", Name: "Economy Unit", Category: "inventory", Price: 800.00, InStock: true},
	{ID: "sku-203", Name: "Pro Unit", Category: "inventory", Price: 3100.00, InStock: true},
}

var businessHours = map[string]string{
	"monday":    "9:00 AM - 6:00 PM",
	"tuesday":   "9:00 AM - 6:00 PM",
	"wednesday": "9:00 AM - 6:00 PM",
	"thursday":  "9:00 AM - 6:00 PM",
	"friday":    "9:00 AM - 7:00 PM",
	"saturday":  "10:00 AM - 4:00 PM",
	"sunday":    "closed",
}

// DefaultToolCatalog returns a small, generic small-business tool catalog —
// inventory search, appointment booking, hours lookup, and human transfer —
// wired with mock backing data so the tool-invocation loop (§4.3) can be
// exercised end-to-end without a real business backend.
func DefaultToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "search_inventory",
			Description: "Search available inventory or service packages matching the given criteria.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query":      map[string]interface{}{"type": "string", "description": "Free-text search term, e.g. product name or category"},
					"max_price":  map[string]interface{}{"type": "number", "description": "Maximum price"},
					"category":   map[string]interface{}{"type": "string", "description": "Category filter, e.g. 'inventory' or 'service'"},
					"in_stock_only": map[string]interface{}{"type": "boolean", "description": "Only return in-stock items"},
				},
				"required": []interface{}{},
			},
			Execute: searchInventory,
		},
		{
			Name:        "book_appointment",
			Description: "Book an appointment. Requires customer name, phone number, and preferred date.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"customer_name":   map[string]interface{}{"type": "string", "description": "Customer's full name"},
					"phone_number":    map[string]interface{}{"type": "string", "description": "Customer's phone number"},
					"item_id":         map[string]interface{}{"type": "string", "description": "Inventory or service item id"},
					"preferred_date":  map[string]interface{}{"type": "string", "description": "Date (YYYY-MM-DD)"},
					"preferred_time":  map[string]interface{}{"type": "string", "description": "Time (HH:MM)"},
				},
				"required": []interface{}{"customer_name", "phone_number", "preferred_date"},
			},
			Execute: bookAppointment,
		},
		{
			Name:        "get_business_hours",
			Description: "Look up business hours for a given day of the week.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"day": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
						"description": "Day of the week",
					},
				},
				"required": []interface{}{},
			},
			Execute: getBusinessHours,
		},
		{
			Name:        "transfer_to_agent",
			Description: "Transfer the caller to a human agent. Use when requested, or the question is too complex.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reason": map[string]interface{}{"type": "string", "description": "Reason for the transfer"},
				},
				"required": []interface{}{},
			},
			Execute: transferToAgent,
		},
	}
}

func searchInventory(ctx context.Context, input map[string]interface{}) (string, error) {
	query, _ := input["query"].(string)
	category, _ := input["category"].(string)
	maxPrice, hasMaxPrice := input["max_price"].(float64)
	inStockOnly, _ := input["in_stock_only"].(bool)

	var matches []string
	for _, item := range mockInventory {
		if query != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) {
			continue
		}
		if category != "" && !strings.EqualFold(category, item.Category) {
			continue
		}
		if hasMaxPrice && item.Price > maxPrice {
			continue
		}
		if inStockOnly && !item.InStock {
			continue
		}
		status := "in stock"
		if !item.InStock {
			status = "out of stock"
		}
		matches = append(matches, fmt.Sprintf("%s (%s) - $%.2f, %s", item.Name, item.ID, item.Price, status))
	}

	if len(matches) == 0 {
		return "No matching items found.", nil
	}
	return strings.Join(matches, "; "), nil
}

func bookAppointment(ctx context.Context, input map[string]interface{}) (string, error) {
	name, _ := input["customer_name"].(string)
	phone, _ := input["phone_number"].(string)
	date, _ := input["preferred_date"].(string)
	time, _ := input["preferred_time"].(string)
	itemID, _ := input["item_id"].(string)

	if name == "" || phone == "" || date == "" {
		return "", fmt.Errorf("customer_name, phone_number, and preferred_date are required")
	}

	bookingID := fmt.Sprintf("bk-%s-%s", strings.ReplaceAll(date, "-", ""), strings.ReplaceAll(phone, " ", ""))
	return fmt.Sprintf("Booked appointment %s for %s on %s %s (item %s).", bookingID, name, date, time, itemID), nil
}

func getBusinessHours(ctx context.Context, input map[string]interface{}) (string, error) {
	day, _ := input["day"].(string)
	if day == "" {
		var lines []string
		for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
			lines = append(lines, fmt.Sprintf("%s: %s", d, businessHours[d]))
		}
		return strings.Join(lines, "; "), nil
	}

	hours, ok := businessHours[strings.ToLower(day)]
	if !ok {
		return "", fmt.Errorf("unknown day: %s", day)
	}
	return fmt.Sprintf("%s: %s", day, hours), nil
}

func transferToAgent(ctx context.Context, input map[string]interface{}) (string, error) {
	reason, _ := input["reason"].(string)
	if reason == "" {
		reason = "unspecified"
	}
	return fmt.Sprintf("Transferring to a human agent (reason: %s).", reason), nil
}
