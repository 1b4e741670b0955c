package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_Weight(t *testing.T) {
	assert.Equal(t, 0.1, SeverityLow.Weight())
	assert.Equal(t, 0.25, SeverityMedium.Weight())
	assert.Equal(t, 0.5, SeverityHigh.Weight())
	assert.Equal(t, 0.0, Severity("unknown").Weight())
}
