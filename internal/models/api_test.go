package models

import "testing"

func TestSearchRequestValidate(t *testing.T) {
	r := &SearchRequest{Query: "q"}
	if err := r.Validate(5); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if r.TopK != 5 {
		t.Errorf("TopK default = %d", r.TopK)
	}

	r = &SearchRequest{Query: "q", TopK: 500}
	_ = r.Validate(5)
	if r.TopK != 100 {
		t.Errorf("TopK should be capped at 100, got %d", r.TopK)
	}

	r = &SearchRequest{}
	if err := r.Validate(5); err == nil {
		t.Error("empty query should fail validation")
	}
}

func TestQueryRequestValidate(t *testing.T) {
	r := &QueryRequest{Query: "q"}
	if err := r.Validate(5); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if r.TemperatureOrDefault() != 0.3 {
		t.Errorf("temperature default = %f", r.TemperatureOrDefault())
	}
	if r.TopK != 5 {
		t.Errorf("TopK default = %d", r.TopK)
	}

	zero := 0.0
	r = &QueryRequest{Query: "q", Temperature: &zero}
	if err := r.Validate(5); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if r.TemperatureOrDefault() != 0 {
		t.Errorf("explicit zero temperature = %f, want 0", r.TemperatureOrDefault())
	}

	neg := -0.1
	r = &QueryRequest{Query: "q", Temperature: &neg}
	if err := r.Validate(5); err == nil {
		t.Error("negative temperature should fail validation")
	}

	r = &QueryRequest{}
	if err := r.Validate(5); err == nil {
		t.Error("empty query should fail validation")
	}
}
