package service

import (
	"context"
	"time"

	"github.com/openmood/emoscope/internal/classifier"
	"github.com/openmood/emoscope/internal/repository"
)

type systemService struct {
	store      repository.Store
	classifier classifier.Classifier
}

// NewSystemService reports health over the store and the classifier.
func NewSystemService(store repository.Store, cls classifier.Classifier) SystemService {
	return &systemService{store: store, classifier: cls}
}

func (s *systemService) Health(ctx context.Context) Health {
	h := Health{
		Status:     "healthy",
		ServerTime: time.Now().UTC(),
	}
	h.StoreConnected = s.store.Ping(ctx) == nil
	if s.classifier != nil {
		h.ClassifierAvailable = s.classifier.Available(ctx)
	}
	if !h.StoreConnected {
		h.Status = "degraded"
	}
	return h
}

var _ SystemService = (*systemService)(nil)
