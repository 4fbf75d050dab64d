package app

import (
	"context"
)

// AquariumFinder loads an aquarium by id. It returns an error with code ENotFound
// when the row is absent.
type AquariumFinder interface {
	FindByID(ctx context.Context, id string) (*Aquarium, error)
}

// ChildResource is any row that lives under an aquarium.
type ChildResource interface {
	ParentAquariumID() string
}

// Policy decides whether a caller may act on an aquarium or on one of its children.
// Ownership is always derived from the stored parent row.
type Policy struct {
	aquariums AquariumFinder
}

func NewPolicy(aquariums AquariumFinder) *Policy {
	return &Policy{aquariums: aquariums}
}

// Aquarium returns the aquarium when callerID owns it. An absent aquarium is reported
// before ownership is looked at.
func (p *Policy) Aquarium(ctx context.Context, callerID, aquariumID string) (*Aquarium, error) {
	aquarium, err := p.aquariums.FindByID(ctx, aquariumID)
	if err != nil {
		return nil, err
	}
	if aquarium.UserID != callerID {
		return nil, Forbidden()
	}
	return aquarium, nil
}

// Child checks a loaded child against its real parent aquarium and the aquarium named
// in the request path. A child filed under another aquarium is reported as not found.
func (p *Policy) Child(ctx context.Context, callerID, pathAquariumID string, child ChildResource, entity string) error {
	parent, err := p.aquariums.FindByID(ctx, child.ParentAquariumID())
	if err != nil {
		if IsNotFound(err) {
			return NotFound(entity)
		}
		return err
	}
	if parent.UserID != callerID {
		return Forbidden()
	}
	if parent.ID != pathAquariumID {
		return NotFound(entity)
	}
	return nil
}

// LoadChild loads a child row and runs the policy on it.
func LoadChild[T ChildResource](
	ctx context.Context,
	p *Policy,
	load func(ctx context.Context, id string) (T, error),
	callerID, pathAquariumID, id, entity string,
) (T, error) {
	child, err := load(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := p.Child(ctx, callerID, pathAquariumID, child, entity); err != nil {
		var zero T
		return zero, err
	}
	return child, nil
}
