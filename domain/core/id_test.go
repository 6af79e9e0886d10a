package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"01927c3e-5b2a-7c4d-8e9f-0a1b2c3d4e5f", RunID("01927c3e-5b2a-7c4d-8e9f-0a1b2c3d4e5f"), false},
		{" 01927C3E-5B2A-7C4D-8E9F-0A1B2C3D4E5F ", RunID("01927c3e-5b2a-7c4d-8e9f-0a1b2c3d4e5f"), false},
		{"run-123", "", true},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestComputeParameterHash_OrderIndependent(t *testing.T) {
	a := ComputeParameterHash(map[string]interface{}{"seed": 475, "n": 1000})
	b := ComputeParameterHash(map[string]interface{}{"n": 1000, "seed": 475})
	c := ComputeParameterHash(map[string]interface{}{"n": 1000, "seed": 476})

	if !a.Equals(b) {
		t.Errorf("Expected equal hashes, got %s and %s", a, b)
	}
	if a.Equals(c) {
		t.Error("Expected different hashes for different seeds")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12 character short hash, got %q", a.Short())
	}
}
