package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeCustomer(t *testing.T) {
	c := NormalizeCustomer(map[string]string{
		FieldName:       "Ada Lovelace",
		FieldEmail:      "  Ada@Example.COM ",
		FieldTotalSpend: "1234.5",
		FieldLastActive: "2025-06-01",
		FieldVisits:     "7",
	})

	if c.Email != "ada@example.com" {
		t.Errorf("email not normalized: %q", c.Email)
	}
	if c.TotalSpend != 1234.5 {
		t.Errorf("totalSpend = %v, want 1234.5", c.TotalSpend)
	}
	if c.Visits != 7 {
		t.Errorf("visits = %d, want 7", c.Visits)
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !c.LastActive.Equal(want) {
		t.Errorf("lastActive = %v, want %v", c.LastActive, want)
	}
}

func TestNormalizeCustomerMalformedFieldsDefault(t *testing.T) {
	before := time.Now().UTC()
	c := NormalizeCustomer(map[string]string{
		FieldName:       "Bob",
		FieldEmail:      "bob@example.com",
		FieldTotalSpend: "not-a-number",
		FieldLastActive: "yesterday-ish",
		FieldVisits:     "many",
	})

	if c.TotalSpend != 0 {
		t.Errorf("malformed totalSpend should default to 0, got %v", c.TotalSpend)
	}
	if c.Visits != 0 {
		t.Errorf("malformed visits should default to 0, got %d", c.Visits)
	}
	if c.LastActive.Before(before) {
		t.Errorf("malformed lastActive should default to now, got %v", c.LastActive)
	}
}

func TestNormalizeOrder(t *testing.T) {
	o, err := NormalizeOrder(map[string]string{
		FieldCustomerEmail: "ada@example.com",
		FieldAmount:        "99.99",
		FieldDate:          "2025-05-04T12:00:00Z",
		FieldItems:         `["keyboard","mouse"]`,
	})
	if err != nil {
		t.Fatalf("NormalizeOrder: %v", err)
	}
	if o.Amount != 99.99 {
		t.Errorf("amount = %v, want 99.99", o.Amount)
	}
	if len(o.Items) != 2 || o.Items[0] != "keyboard" {
		t.Errorf("items = %v", o.Items)
	}
}

func TestNormalizeOrderRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"missing email", map[string]string{FieldAmount: "10"}},
		{"zero amount", map[string]string{FieldCustomerEmail: "a@b.c", FieldAmount: "0"}},
		{"negative amount", map[string]string{FieldCustomerEmail: "a@b.c", FieldAmount: "-5"}},
		{"malformed amount", map[string]string{FieldCustomerEmail: "a@b.c", FieldAmount: "lots"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeOrder(tc.fields)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestNormalizeOrderMalformedItemsDefaultEmpty(t *testing.T) {
	o, err := NormalizeOrder(map[string]string{
		FieldCustomerEmail: "a@b.c",
		FieldAmount:        "10",
		FieldItems:         "{broken",
	})
	if err != nil {
		t.Fatalf("NormalizeOrder: %v", err)
	}
	if o.Items == nil || len(o.Items) != 0 {
		t.Errorf("items = %v, want empty slice", o.Items)
	}
}
