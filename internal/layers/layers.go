// Package layers bundles the built-in layers into one module source.
package layers

import (
	"errors"

	"github.com/roach88/vlayer/internal/layer"
	"github.com/roach88/vlayer/internal/layers/autoreplay"
	"github.com/roach88/vlayer/internal/layers/sample"
	"github.com/roach88/vlayer/internal/layers/threadcheck"
)

// Set holds one instance of every built-in layer.
type Set struct {
	Autoreplay  *autoreplay.Layer
	Sample      *sample.Layer
	ThreadCheck *threadcheck.Layer
}

// NewSet creates the built-in layers. opts configure the record/replay
// layer.
func NewSet(opts ...autoreplay.Option) *Set {
	return &Set{
		Autoreplay:  autoreplay.New(opts...),
		Sample:      sample.New(),
		ThreadCheck: threadcheck.New(),
	}
}

// Source enumerates the built-in modules in chain order.
func (s *Set) Source() layer.StaticSource {
	return layer.StaticSource{
		s.Autoreplay.Module(),
		s.Sample.Module(),
		s.ThreadCheck.Module(),
	}
}

// Close releases layer resources.
func (s *Set) Close() error {
	return errors.Join(s.Autoreplay.Close())
}
