package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSeverity(t *testing.T) {
	cases := []struct {
		name       string
		disease    string
		confidence int
		want       string
	}{
		{"healthy is always low", HealthyLabel, 99, SeverityLow},
		{"healthy low confidence", HealthyLabel, 40, SeverityLow},
		{"high confidence", "Late Blight", 91, SeverityHigh},
		{"boundary 90 is medium", "Late Blight", 90, SeverityMedium},
		{"medium confidence", "Powdery Mildew", 86, SeverityMedium},
		{"boundary 85 is low", "Powdery Mildew", 85, SeverityLow},
		{"low confidence", "Leaf Curl", 50, SeverityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveSeverity(tc.disease, tc.confidence))
		})
	}
}
