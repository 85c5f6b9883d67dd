package app

import (
	"context"
	"math/rand"
	"sync"
)

// Classifier maps an image to a disease label with a confidence in
// [0,100]. A real model replaces RandomClassifier without touching
// the pipeline.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (label string, confidence int, err error)
}

// RandomClassifier is the stand-in model: a uniform draw over the
// catalog labels and an independent confidence in [85,99].
type RandomClassifier struct {
	labels []string

	mu   sync.Mutex // rand.Rand is not safe for concurrent requests
	rand *rand.Rand
}

func NewRandomClassifier(source rand.Source) *RandomClassifier {
	return &RandomClassifier{
		labels: DiseaseNames(),
		rand:   rand.New(source),
	}
}

func (c *RandomClassifier) Classify(_ context.Context, _ []byte) (string, int, error) {
	c.mu.Lock()
	label := c.labels[c.rand.Intn(len(c.labels))]
	confidence := 85 + c.rand.Intn(15)
	c.mu.Unlock()
	return label, confidence, nil
}
