package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"plantserv/src/repository"
)

const diseaseKeyPrefix = "disease:"

func diseaseKey(name string) string {
	return diseaseKeyPrefix + name
}

// Catalog serves the static disease reference data out of the
// key-value store.
type Catalog struct {
	store  repository.KVStore
	logger *zap.Logger
}

func NewCatalog(store repository.KVStore, logger *zap.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

// Seed writes the canonical records, skipping any key that already
// exists. Re-running never overwrites, so hand-edited records survive
// a redeploy.
func (c *Catalog) Seed(ctx context.Context) error {
	for _, disease := range canonicalDiseases {
		_, ok, err := c.store.Get(ctx, diseaseKey(disease.Name))
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if ok {
			continue
		}
		if err := c.store.Set(ctx, diseaseKey(disease.Name), disease); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		c.logger.Info("seeded disease record", zap.String("name", disease.Name))
	}
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (*Disease, error) {
	raw, ok, err := c.store.Get(ctx, diseaseKey(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: disease %q", ErrNotFound, name)
	}
	var disease Disease
	if err := json.Unmarshal(raw, &disease); err != nil {
		return nil, fmt.Errorf("%w: decode disease %q: %v", repository.ErrStorage, name, err)
	}
	return &disease, nil
}

func (c *Catalog) List(ctx context.Context) ([]Disease, error) {
	raws, err := c.store.GetByPrefix(ctx, diseaseKeyPrefix)
	if err != nil {
		return nil, err
	}
	diseases := make([]Disease, 0, len(raws))
	for _, raw := range raws {
		var disease Disease
		if err := json.Unmarshal(raw, &disease); err != nil {
			return nil, fmt.Errorf("%w: decode disease record: %v", repository.ErrStorage, err)
		}
		diseases = append(diseases, disease)
	}
	return diseases, nil
}

// DiseaseNames returns the label set the stub classifier draws from.
func DiseaseNames() []string {
	names := make([]string, 0, len(canonicalDiseases))
	for _, disease := range canonicalDiseases {
		names = append(names, disease.Name)
	}
	return names
}

var canonicalDiseases = []Disease{
	{
		Name:        "Late Blight",
		Category:    "Fungal",
		Description: "Late blight is a devastating disease that affects tomatoes and potatoes. It spreads rapidly in humid conditions.",
		Symptoms: []string{
			"Dark brown to black lesions on leaves",
			"White fuzzy growth on undersides of leaves",
			"Stem lesions with dark streaks",
			"Fruit rot with firm, greasy appearance",
		},
		Treatments: []string{
			"Remove and destroy affected plants immediately",
			"Apply copper-based fungicides every 7-10 days",
			"Improve air circulation around plants",
			"Avoid overhead watering",
		},
		Prevention: []string{
			"Plant resistant varieties when available",
			"Ensure proper plant spacing for air circulation",
			"Water at the base of plants, not overhead",
			"Remove plant debris at end of season",
		},
	},
	{
		Name:        "Powdery Mildew",
		Category:    "Fungal",
		Description: "A fungal disease that creates white powdery spots on leaves and stems, reducing plant vigor.",
		Symptoms: []string{
			"White powdery spots on leaves",
			"Leaves may curl and become distorted",
			"Reduced plant growth and vigor",
			"Premature leaf drop",
		},
		Treatments: []string{
			"Apply sulfur or potassium bicarbonate sprays",
			"Remove heavily infected leaves",
			"Spray with neem oil solution",
			"Improve air circulation",
		},
		Prevention: []string{
			"Plant in full sun when possible",
			"Avoid overcrowding plants",
			"Water in the morning to allow leaves to dry",
			"Choose resistant varieties",
		},
	},
	{
		Name:        "Bacterial Spot",
		Category:    "Bacterial",
		Description: "A bacterial disease causing dark spots on leaves and fruit, commonly affecting peppers and tomatoes.",
		Symptoms: []string{
			"Small dark spots with yellow halos on leaves",
			"Spots on fruit and stems",
			"Leaf yellowing and drop",
			"Reduced fruit quality",
		},
		Treatments: []string{
			"Apply copper-based bactericides",
			"Remove infected plant parts",
			"Avoid working with wet plants",
			"Use disease-free seeds and transplants",
		},
		Prevention: []string{
			"Practice crop rotation",
			"Use drip irrigation instead of overhead",
			"Sanitize tools between plants",
			"Remove plant debris promptly",
		},
	},
	{
		Name:        "Early Blight",
		Category:    "Fungal",
		Description: "Causes dark concentric rings on lower leaves, progressing upward.",
		Symptoms: []string{
			"Dark spots with concentric rings on leaves",
			"Yellow halo around spots",
			"Progressive leaf death from bottom up",
			"Stem lesions near soil line",
		},
		Treatments: []string{
			"Remove affected leaves promptly",
			"Apply fungicides containing chlorothalonil",
			"Mulch around plants to prevent soil splash",
			"Stake plants for better air flow",
		},
		Prevention: []string{
			"Rotate crops annually",
			"Space plants properly",
			"Avoid overhead irrigation",
			"Clean up plant debris",
		},
	},
	{
		Name:        "Leaf Curl",
		Category:    "Viral",
		Description: "Leaves become distorted, curled, and discolored, affecting plant growth.",
		Symptoms: []string{
			"Leaves curl upward or downward",
			"Yellowing or reddening of leaves",
			"Stunted plant growth",
			"Reduced fruit production",
		},
		Treatments: []string{
			"Remove and destroy infected plants",
			"Control aphid populations (virus vectors)",
			"No cure available once infected",
			"Focus on prevention",
		},
		Prevention: []string{
			"Use virus-free planting material",
			"Control insect vectors",
			"Remove infected plants immediately",
			"Plant resistant varieties",
		},
	},
	{
		Name:        HealthyLabel,
		Category:    "None",
		Description: "Your plant appears to be healthy with no signs of disease. Continue with proper care practices.",
		Symptoms:    []string{},
		Treatments:  []string{},
		Prevention: []string{
			"Maintain consistent watering schedule",
			"Ensure adequate sunlight exposure",
			"Provide proper nutrients and fertilization",
			"Monitor regularly for early signs of problems",
			"Maintain good air circulation around plants",
		},
	},
}
