package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"plantserv/src/repository"
)

const imageContentType = "image/jpeg"

func userKey(email string) string {
	return "user:" + email
}

func userIDKey(userID string) string {
	return "user:id:" + userID
}

func predictionPrefix(userID string) string {
	return "prediction:" + userID + ":"
}

// Service is the prediction pipeline: it composes the identity
// provider, object store, classifier and catalog into the request
// flows of the application. Each call is a sequential chain of
// boundary calls with no shared in-process state, so concurrent
// requests need no coordination.
type Service struct {
	store      repository.KVStore
	objects    ObjectStore
	identity   IdentityProvider
	classifier Classifier
	catalog    *Catalog
	urlExpiry  time.Duration
	logger     *zap.Logger

	now func() time.Time
}

func NewService(
	store repository.KVStore,
	objects ObjectStore,
	identity IdentityProvider,
	classifier Classifier,
	catalog *Catalog,
	urlExpiry time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:      store,
		objects:    objects,
		identity:   identity,
		classifier: classifier,
		catalog:    catalog,
		urlExpiry:  urlExpiry,
		logger:     logger,
		now:        time.Now,
	}
}

// SignUp creates the user at the identity provider and mirrors a
// denormalized projection under user:{email} and user:id:{userID}.
// The mirror is a cache for duplicate pre-checks; the provider stays
// the source of truth.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*User, error) {
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password, and name are required", ErrValidation)
	}

	_, exists, err := s.store.Get(ctx, userKey(email))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	userID, err := s.identity.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:        userID,
		Email:     email,
		Name:      name,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Set(ctx, userKey(email), user); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, userIDKey(userID), user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn exchanges email/password for a bearer token via the identity
// provider and returns the mirrored user projection alongside it.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *User, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	token, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	user := &User{Email: email}
	raw, ok, err := s.store.Get(ctx, userKey(email))
	if err == nil && ok {
		_ = json.Unmarshal(raw, user)
	}
	return token, user, nil
}

// Predict runs the full pipeline for one uploaded image: verify the
// credential, store the image, classify it, enrich from the catalog
// and append a history record. The upload always happens before the
// record is written, so no record can reference a missing blob.
func (s *Service) Predict(ctx context.Context, token string, image []byte) (*PredictionResult, string, error) {
	userID, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, "", err
	}

	if len(image) == 0 {
		return nil, "", fmt.Errorf("%w: image data is required", ErrValidation)
	}

	instant := s.now()
	epochMillis := instant.UnixMilli()
	path := fmt.Sprintf("%s/%d.jpg", userID, epochMillis)

	if err := s.objects.Upload(ctx, path, image, imageContentType); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	// The blob is already durable at this point; a failed signing is
	// not worth failing the whole call over.
	imageURL, err := s.objects.PresignedURL(ctx, path, s.urlExpiry)
	if err != nil {
		s.logger.Warn("could not presign image URL", zap.String("path", path), zap.Error(err))
		imageURL = ""
	}

	label, confidence, err := s.classifier.Classify(ctx, image)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	severity := DeriveSeverity(label, confidence)

	result := &PredictionResult{
		Disease:     label,
		Confidence:  confidence,
		Severity:    severity,
		Description: "",
		Symptoms:    []string{},
		Treatments:  []string{},
		Prevention:  []string{},
	}
	// Enrichment is best-effort: an unknown label still yields a
	// successful prediction with empty reference fields.
	if disease, err := s.catalog.Get(ctx, label); err == nil {
		result.Description = disease.Description
		if disease.Symptoms != nil {
			result.Symptoms = disease.Symptoms
		}
		if disease.Treatments != nil {
			result.Treatments = disease.Treatments
		}
		if disease.Prevention != nil {
			result.Prevention = disease.Prevention
		}
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("catalog lookup failed", zap.String("disease", label), zap.Error(err))
	}

	predictionID := fmt.Sprintf("prediction:%s:%d", userID, epochMillis)
	record := PredictionRecord{
		ID:         predictionID,
		UserID:     userID,
		ImageURL:   imageURL,
		Disease:    label,
		Confidence: confidence,
		Severity:   severity,
		Timestamp:  instant.UTC().Format(time.RFC3339),
	}
	if err := s.store.Set(ctx, predictionID, record); err != nil {
		return nil, "", err
	}

	s.logger.Info("prediction recorded",
		zap.String("userId", userID),
		zap.String("disease", label),
		zap.Int("confidence", confidence))
	return result, predictionID, nil
}

// History returns the caller's prediction records, newest first.
// A user with no predictions gets an empty slice, not an error.
func (s *Service) History(ctx context.Context, token string) ([]PredictionRecord, error) {
	userID, err := s.identity.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	raws, err := s.store.GetByPrefix(ctx, predictionPrefix(userID))
	if err != nil {
		return nil, err
	}

	records := make([]PredictionRecord, 0, len(raws))
	for _, raw := range raws {
		var record PredictionRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("%w: decode prediction record: %v", repository.ErrStorage, err)
		}
		records = append(records, record)
	}

	// RFC3339 UTC timestamps sort lexicographically. The id embeds the
	// epoch-millis instant, which breaks same-second ties.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp > records[j].Timestamp
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (s *Service) Diseases(ctx context.Context) ([]Disease, error) {
	return s.catalog.List(ctx)
}

func (s *Service) Disease(ctx context.Context, name string) (*Disease, error) {
	return s.catalog.Get(ctx, name)
}
