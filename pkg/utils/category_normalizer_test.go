package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBloodGroup(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"O+", "O+"},
		{"o pos", "O+"},
		{"O +ve", "O+"},
		{"  ab negative ", "AB-"},
		{"B-VE", "B-"},
		{"a positive", "A+"},
		{"AB  +", "AB+"},
		{"", ""},
		{"rare", "RARE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBloodGroup(tt.input))
		})
	}
}

func TestIsValidBloodGroup(t *testing.T) {
	assert.True(t, IsValidBloodGroup("o neg"))
	assert.True(t, IsValidBloodGroup("AB+"))
	assert.False(t, IsValidBloodGroup("C+"))
	assert.False(t, IsValidBloodGroup(""))
}
