// Package registry is the single source of truth for who can receive
// messages and where on the automation surface they live.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zulandar/switchboard/internal/config"
)

var (
	// ErrUnknownEndpoint is returned when an endpoint id is not registered.
	ErrUnknownEndpoint = errors.New("registry: unknown endpoint")
	// ErrInvalidLocation is returned when a coordinate lies outside the
	// configured bounding rectangle.
	ErrInvalidLocation = errors.New("registry: location out of bounds")
)

// Point is a coordinate on the automation surface.
type Point struct {
	X int
	Y int
}

// Rect is the bounding rectangle of valid coordinates.
type Rect struct {
	MinX int
	MaxX int
	MinY int
	MaxY int
}

// Contains reports whether p lies within the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Endpoint is one addressable agent target.
type Endpoint struct {
	ID          string
	Location    Point
	Secondary   *Point // optional alternate interaction point
	Active      bool
	Description string
}

// Registry holds the known endpoints. A single owning instance is passed
// by reference into the router and broadcast coordinator; there is no
// package-level state.
type Registry struct {
	mu        sync.RWMutex
	bounds    Rect
	endpoints map[string]Endpoint
}

// New creates an empty Registry with the given coordinate bounds.
func New(bounds Rect) *Registry {
	return &Registry{
		bounds:    bounds,
		endpoints: make(map[string]Endpoint),
	}
}

// FromConfig builds a Registry from the loaded configuration.
func FromConfig(cfg *config.Config) (*Registry, error) {
	bounds := Rect{
		MinX: cfg.Bounds.MinX,
		MaxX: cfg.Bounds.MaxX,
		MinY: cfg.Bounds.MinY,
		MaxY: cfg.Bounds.MaxY,
	}
	reg := New(bounds)
	for _, ec := range cfg.Endpoints {
		if err := reg.Register(endpointFromConfig(ec)); err != nil {
			return nil, fmt.Errorf("registry: endpoint %q: %w", ec.ID, err)
		}
	}
	return reg, nil
}

func endpointFromConfig(ec config.EndpointConfig) Endpoint {
	ep := Endpoint{
		ID:          ec.ID,
		Location:    Point{X: ec.Location[0], Y: ec.Location[1]},
		Active:      ec.Active,
		Description: ec.Description,
	}
	if len(ec.Secondary) == 2 {
		ep.Secondary = &Point{X: ec.Secondary[0], Y: ec.Secondary[1]}
	}
	return ep
}

// Bounds returns the configured bounding rectangle.
func (r *Registry) Bounds() Rect {
	return r.bounds
}

// Register adds or replaces an endpoint by id. Both locations are checked
// against the bounds; a rejected endpoint leaves no partial state behind.
func (r *Registry) Register(ep Endpoint) error {
	if ep.ID == "" {
		return fmt.Errorf("registry: endpoint id is required")
	}
	if !r.bounds.Contains(ep.Location) {
		return fmt.Errorf("%w: %s at (%d, %d)", ErrInvalidLocation, ep.ID, ep.Location.X, ep.Location.Y)
	}
	if ep.Secondary != nil && !r.bounds.Contains(*ep.Secondary) {
		return fmt.Errorf("%w: %s secondary at (%d, %d)", ErrInvalidLocation, ep.ID, ep.Secondary.X, ep.Secondary.Y)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[ep.ID] = ep
	return nil
}

// Get returns the endpoint with the given id.
func (r *Registry) Get(id string) (Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, id)
	}
	return ep, nil
}

// List returns all endpoints sorted by id.
func (r *Registry) List() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListActive returns all active endpoints sorted by id, so broadcast
// fan-out order is reproducible.
func (r *Registry) ListActive() []Endpoint {
	var out []Endpoint
	for _, ep := range r.List() {
		if ep.Active {
			out = append(out, ep)
		}
	}
	return out
}

// SetActive toggles an endpoint's activation flag. Endpoints are never
// removed during a process lifetime, only deactivated.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.endpoints[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEndpoint, id)
	}
	ep.Active = active
	r.endpoints[id] = ep
	return nil
}
