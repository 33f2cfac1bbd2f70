// Package factory provides a generic registry for building pluggable modules
// from configuration. A module is named by a type string and configured by a
// raw settings map; the registered builder decodes the map into its own typed
// struct and returns the concrete implementation.
//
// Example:
//
//	reg := factory.NewRegistry[metrics.MatchSink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.MatchSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return metrics.NewInfluxSink(c.URL), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": u}})
package factory

import (
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig names a module type and carries its raw settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds an implementation of T from raw settings.
type Factory[T any] func(map[string]any) (T, error)

// Registry maps module type names to their builders. Safe for concurrent use.
type Registry[T any] struct {
	mu       sync.RWMutex
	builders map[string]Factory[T]
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{builders: make(map[string]Factory[T])}
}

// Register binds name to builder f. Names are bound once; rebinding or
// binding a nil builder is an error.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("nil builder for module type %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.builders[name]; taken {
		return fmt.Errorf("module type %q already registered", name)
	}
	r.builders[name] = f
	return nil
}

// Create builds the module described by cfg.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.builders[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown module type %q", cfg.Type)
	}
	return f(cfg.Conf)
}

// Decode fills out from data, matching keys against json struct tags.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: out})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
