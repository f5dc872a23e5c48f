package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented decorates a Store with Prometheus latency, error and byte counters.
type Instrumented struct {
	next Store

	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	bytes    prometheus.Counter
}

// NewInstrumented registers the store metrics on reg (the default registerer
// when nil) and wraps next.
func NewInstrumented(next Store, namespace string, reg prometheus.Registerer) (*Instrumented, error) {
	if namespace == "" {
		namespace = "media_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &Instrumented{
		next: next,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed object store operations.",
		}, []string{"operation"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully uploaded to the object store.",
		}),
	}

	var err error
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.errors, err = register(reg, s.errors); err != nil {
		return nil, err
	}
	if s.bytes, err = register(reg, s.bytes); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when one with the same
// descriptor exists, so several stores can share a registry.
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

func (s *Instrumented) observe(op string, start time.Time, err error) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.errors.WithLabelValues(op).Inc()
	}
}

func (s *Instrumented) Put(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	err := s.next.Put(ctx, key, data, contentType)
	s.observe("put", start, err)
	if err == nil {
		s.bytes.Add(float64(len(data)))
	}
	return err
}

func (s *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}

func (s *Instrumented) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, key)
	s.observe("exists", start, err)
	return ok, err
}

func (s *Instrumented) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := s.next.List(ctx, prefix)
	s.observe("list", start, err)
	return keys, err
}

func (s *Instrumented) PublicURL(key string) string {
	return s.next.PublicURL(key)
}
