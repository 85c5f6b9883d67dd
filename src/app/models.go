package app

// User is the denormalized projection mirrored into the key-value
// store at signup. The identity provider stays authoritative.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Disease is one entry of the static reference catalog. The "Healthy"
// entry is the no-disease sentinel: empty symptoms and treatments,
// non-empty prevention tips.
type Disease struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Symptoms    []string `json:"symptoms"`
	Treatments  []string `json:"treatments"`
	Prevention  []string `json:"prevention"`
}

// PredictionRecord is one line of a user's append-only history.
// Never mutated, never deleted.
type PredictionRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ImageURL   string `json:"imageUrl"`
	Disease    string `json:"disease"`
	Confidence int    `json:"confidence"`
	Severity   string `json:"severity"`
	Timestamp  string `json:"timestamp"`
}

// PredictionResult is what the client gets back: the diagnosis plus
// the catalog enrichment for the predicted label.
type PredictionResult struct {
	Disease     string   `json:"disease"`
	Confidence  int      `json:"confidence"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Symptoms    []string `json:"symptoms"`
	Treatments  []string `json:"treatments"`
	Prevention  []string `json:"prevention"`
}

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	// HealthyLabel is the catalog's no-disease sentinel.
	HealthyLabel = "Healthy"
)

// DeriveSeverity maps a diagnosis to a coarse risk level. The healthy
// check comes first so a healthy result is never graded by confidence.
func DeriveSeverity(disease string, confidence int) string {
	switch {
	case disease == HealthyLabel:
		return SeverityLow
	case confidence > 90:
		return SeverityHigh
	case confidence > 85:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
