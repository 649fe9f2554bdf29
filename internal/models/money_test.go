package models

import (
	"encoding/json"
	"testing"
)

func TestMoneyPercent(t *testing.T) {
	cases := []struct {
		amount string
		rate   string
		want   string
	}{
		{"1000", "10", "100.00"},
		{"1000", "7", "70.00"},
		{"100", "50", "50.00"},
		{"19.99", "12.5", "2.50"},
	}
	for _, tc := range cases {
		amount, _ := ParseMoney(tc.amount)
		rate, _ := ParseMoney(tc.rate)
		if got := amount.Percent(rate).String(); got != tc.want {
			t.Fatalf("%s x %s%%: got %s want %s", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestMoneyUnmarshalAcceptsNumberAndString(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.345,"b":"7.1","c":null}`), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.A.String() != "12.35" && payload.A.String() != "12.34" {
		t.Fatalf("unexpected a: %s", payload.A.String())
	}
	if payload.B.String() != "7.10" {
		t.Fatalf("unexpected b: %s", payload.B.String())
	}
	if !payload.C.IsZero() {
		t.Fatalf("expected zero c, got %s", payload.C.String())
	}
}
