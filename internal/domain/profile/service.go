package profile

import (
	"context"

	"bankprofile/internal/domain/identity"
)

// Service handles non-interactive profile reads and writes.
type Service struct {
	store Store
}

// NewService creates profile service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetProfile returns the caller's profile, or defaults when none exists yet.
func (s *Service) GetProfile(ctx context.Context, ident identity.Identity) (*Record, error) {
	remote, err := s.store.ReadOne(ctx, ident.ID)
	if ClassifyRead(remote, err) == ReadFailed {
		return nil, err
	}
	if err != nil {
		remote = nil
	}
	rec := resolve(ident.ID, remote, ident.Email)
	return &rec, nil
}

// UpdateProfile applies the provided fields on top of the stored profile.
func (s *Service) UpdateProfile(ctx context.Context, ident identity.Identity, req *UpdateProfileRequest) (*Record, error) {
	profile, err := s.GetProfile(ctx, ident)
	if err != nil {
		return nil, err
	}

	// Update fields if provided
	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		dob, err := ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		profile.DateOfBirth = dob
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.City != nil {
		profile.City = *req.City
	}
	if req.State != nil {
		profile.State = *req.State
	}
	if req.ZipCode != nil {
		profile.ZipCode = *req.ZipCode
	}

	if err := s.store.UpdateOne(ctx, ident.ID, profile.Update()); err != nil {
		return nil, err
	}

	return profile, nil
}
