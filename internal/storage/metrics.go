package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for object store operations.
type Observer interface {
	RecordPut(duration time.Duration, sizeBytes int64, err error)
	RecordDelete(duration time.Duration, err error)
}

// PrometheusObserver exports object store metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	operations  *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

// NewPrometheusObserver registers put/delete metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "uploader_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Object store operations by outcome.",
		}, []string{"operation", "outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully written to the object store.",
		}),
	}

	var err error
	if observer.duration, err = register(reg, observer.duration); err != nil {
		return nil, err
	}
	if observer.operations, err = register(reg, observer.operations); err != nil {
		return nil, err
	}
	if observer.uploadBytes, err = register(reg, observer.uploadBytes); err != nil {
		return nil, err
	}
	return observer, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register storage metric: %w", err)
	}
	return c, nil
}

// RecordPut tracks upload duration, size, and outcome.
func (o *PrometheusObserver) RecordPut(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("put").Observe(duration.Seconds())
	o.operations.WithLabelValues("put", outcome(err)).Inc()
	if err == nil && sizeBytes > 0 {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordDelete(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("delete").Observe(duration.Seconds())
	o.operations.WithLabelValues("delete", outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrObjectNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ObservedStore decorates an ObjectStore with an Observer.
type ObservedStore struct {
	next     ObjectStore
	observer Observer
}

// WithObserver wraps store so every call is reported to observer. A nil
// observer returns store unchanged.
func WithObserver(store ObjectStore, observer Observer) ObjectStore {
	if observer == nil {
		return store
	}
	return &ObservedStore{next: store, observer: observer}
}

func (s *ObservedStore) Put(ctx context.Context, in PutInput) (PutResult, error) {
	start := time.Now()
	res, err := s.next.Put(ctx, in)
	s.observer.RecordPut(time.Since(start), in.Size, err)
	return res, err
}

func (s *ObservedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observer.RecordDelete(time.Since(start), err)
	return err
}

func (s *ObservedStore) PublicURL(key string) string {
	return s.next.PublicURL(key)
}

var _ ObjectStore = (*ObservedStore)(nil)
