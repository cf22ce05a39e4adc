package keys

import (
	"testing"

	"observer/internal/platform/models"
)

func TestSelectActive(t *testing.T) {
	tests := []struct {
		name     string
		records  []*models.CredentialKey
		expected string
	}{
		{
			name:     "Empty Pool",
			records:  nil,
			expected: "",
		},
		{
			name: "Lowest Priority Wins",
			records: []*models.CredentialKey{
				{ID: "b", Priority: 1},
				{ID: "a", Priority: 0},
			},
			expected: "a",
		},
		{
			name: "Exhausted Keys Skipped",
			records: []*models.CredentialKey{
				{ID: "a", Priority: 0, Exhausted: true},
				{ID: "b", Priority: 1},
			},
			expected: "b",
		},
		{
			name: "All Exhausted",
			records: []*models.CredentialKey{
				{ID: "a", Priority: 0, Exhausted: true},
				{ID: "b", Priority: 1, Exhausted: true},
			},
			expected: "",
		},
		{
			name: "Equal Priority Falls Back To Oldest",
			records: []*models.CredentialKey{
				{ID: "newer", Priority: 0, CreatedAt: 200},
				{ID: "older", Priority: 0, CreatedAt: 100},
			},
			expected: "older",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectActive(tt.records)
			if tt.expected == "" {
				if result != nil {
					t.Errorf("Expected nil, got %s", result.ID)
				}
				return
			}
			if result == nil {
				t.Fatalf("Expected %s, got nil", tt.expected)
			}
			if result.ID != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result.ID)
			}
		})
	}
}

func TestSelectActive_DoesNotMutateInput(t *testing.T) {
	records := []*models.CredentialKey{
		{ID: "b", Priority: 1},
		{ID: "a", Priority: 0},
	}
	SelectActive(records)
	if records[0].ID != "b" || records[1].ID != "a" {
		t.Error("Expected input slice order to be preserved")
	}
}
