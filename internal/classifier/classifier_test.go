package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmood/emoscope/internal/domain"
)

func TestResultFromScores(t *testing.T) {
	scores := []float64{0.1, 0.05, 0.05, 0.6, 0.1, 0.05, 0.05}
	result, err := resultFromScores(scores)
	require.NoError(t, err)
	assert.Equal(t, domain.Happy, result.Emotion)
	assert.InDelta(t, 0.6, result.Confidence, 1e-9)
}

func TestResultFromScores_TieResolvesToLowestIndex(t *testing.T) {
	scores := []float64{0.3, 0.1, 0.3, 0.3, 0, 0, 0}
	result, err := resultFromScores(scores)
	require.NoError(t, err)
	assert.Equal(t, domain.Angry, result.Emotion)
}

func TestResultFromScores_WrongLength(t *testing.T) {
	_, err := resultFromScores([]float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestStaticClassifier_Deterministic(t *testing.T) {
	cls := NewStaticClassifier()
	ctx := context.Background()

	first, err := cls.Classify(ctx, []byte("same image"))
	require.NoError(t, err)
	second, err := cls.Classify(ctx, []byte("same image"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.Confidence, 0.0)
	assert.LessOrEqual(t, first.Confidence, 1.0)
	assert.True(t, cls.Available(ctx))
}

func TestHTTPClassifier_ScoresResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Image)
		json.NewEncoder(w).Encode(classifyResponse{
			Scores: []float64{0, 0, 0, 0.9, 0.1, 0, 0},
		})
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 5 * time.Second})
	result, err := cls.Classify(context.Background(), []byte("image"))
	require.NoError(t, err)
	assert.Equal(t, domain.Happy, result.Emotion)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestHTTPClassifier_LabelResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Emotion: "Surprise", Confidence: 0.77})
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 5 * time.Second})
	result, err := cls.Classify(context.Background(), []byte("image"))
	require.NoError(t, err)
	assert.Equal(t, domain.Surprise, result.Emotion)
}

func TestHTTPClassifier_UnknownLabel(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(classifyResponse{Emotion: "Bored", Confidence: 0.5})
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 5 * time.Second})
	_, err := cls.Classify(context.Background(), []byte("image"))
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestHTTPClassifier_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(classifyResponse{Emotion: "Neutral", Confidence: 0.5})
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 10 * time.Second, MaxRetries: 3})
	result, err := cls.Classify(context.Background(), []byte("image"))
	require.NoError(t, err)
	assert.Equal(t, domain.Neutral, result.Emotion)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestHTTPClassifier_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 5 * time.Second, MaxRetries: 3})
	_, err := cls.Classify(context.Background(), []byte("image"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClassifier_NegativeMaxRetriesMeansSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: 5 * time.Second, MaxRetries: -1})
	_, err := cls.Classify(context.Background(), []byte("image"))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClassifier_Available(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	cls := NewHTTPClassifier(Config{Endpoint: backend.URL, Timeout: time.Second})
	assert.True(t, cls.Available(context.Background()))

	backend.Close()
	assert.False(t, cls.Available(context.Background()))
}
