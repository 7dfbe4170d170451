// Package static is the config-blob apartment registry: the whole table as a
// JSON array in an env var, for single-binary deployments without MySQL.
package static

import (
	"context"
	"encoding/json"
	"fmt"

	"villarosa/internal/domain"
)

type Repo struct {
	byID  map[string]domain.Apartment
	order []string
}

func Parse(blob string) (*Repo, error) {
	var apts []domain.Apartment
	if err := json.Unmarshal([]byte(blob), &apts); err != nil {
		return nil, fmt.Errorf("parse apartments config: %w", err)
	}
	if len(apts) == 0 {
		return nil, fmt.Errorf("apartments config is empty")
	}
	r := &Repo{byID: make(map[string]domain.Apartment, len(apts))}
	for _, a := range apts {
		if a.ID == "" || a.Ref.PropID == 0 {
			return nil, fmt.Errorf("apartment entry missing id or upstream ref: %+v", a)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate apartment id %q", a.ID)
		}
		r.byID[a.ID] = a
		r.order = append(r.order, a.ID)
	}
	return r, nil
}

func (r *Repo) GetApartment(_ context.Context, id string) (domain.Apartment, error) {
	a, ok := r.byID[id]
	if !ok {
		return domain.Apartment{}, fmt.Errorf("%w: %s", domain.ErrApartmentNotFound, id)
	}
	return a, nil
}

func (r *Repo) ListApartments(context.Context) ([]domain.Apartment, error) {
	out := make([]domain.Apartment, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}
