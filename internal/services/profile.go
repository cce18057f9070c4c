package services

import (
	"context"

	"github.com/go-faster/errors"

	"shopkart_back_end/internal/models"
)

type ProfileInput struct {
	FirstName   *string
	LastName    *string
	CountryCode *string
	PhoneNumber *string
}

type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, owner ObjectID) (*models.Profile, error) {
	p, err := s.profiles.FindByOwner(ctx, owner)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, owner ObjectID, in ProfileInput) (*models.Profile, error) {
	p, err := s.profiles.FindByOwner(ctx, owner)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.CountryCode != nil {
		p.CountryCode = *in.CountryCode
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = *in.PhoneNumber
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, notFound(err, "User not found")
	}
	return p, nil
}

type AddressInput struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	Country      string
	Pincode      string
	State        string
}

type AddressPatch struct {
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	Country      *string
	Pincode      *string
	State        *string
}

type AddressService struct {
	addresses AddressStore
}

func NewAddressService(addresses AddressStore) *AddressService {
	return &AddressService{addresses: addresses}
}

func (s *AddressService) Create(ctx context.Context, owner ObjectID, in AddressInput) (*models.Address, error) {
	a := &models.Address{
		Owner:        owner,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		Country:      in.Country,
		Pincode:      in.Pincode,
		State:        in.State,
	}
	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return a, nil
}

func (s *AddressService) List(ctx context.Context, owner ObjectID, q models.PageQuery) (models.Page[models.Address], error) {
	page, err := s.addresses.List(ctx, owner, q)
	if err != nil {
		return models.Page[models.Address]{}, errors.Wrap(err, "list addresses")
	}
	return page.WithLabels(models.AddressLabels), nil
}

func (s *AddressService) Get(ctx context.Context, id, owner ObjectID) (*models.Address, error) {
	a, err := s.addresses.FindOwned(ctx, id, owner)
	if err != nil {
		return nil, notFound(err, "Address does not exist.")
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, id, owner ObjectID, patch AddressPatch) (*models.Address, error) {
	a, err := s.addresses.FindOwned(ctx, id, owner)
	if err != nil {
		return nil, notFound(err, "Error while updating address.")
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.AddressLine1, patch.AddressLine1)
	set(&a.AddressLine2, patch.AddressLine2)
	set(&a.City, patch.City)
	set(&a.Country, patch.Country)
	set(&a.Pincode, patch.Pincode)
	set(&a.State, patch.State)

	if err := s.addresses.Update(ctx, a); err != nil {
		return nil, notFound(err, "Error while updating address.")
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, id, owner ObjectID) (*models.Address, error) {
	a, err := s.addresses.FindOwned(ctx, id, owner)
	if err != nil {
		return nil, notFound(err, "Error while deleting address.")
	}
	if err := s.addresses.DeleteOwned(ctx, id, owner); err != nil {
		return nil, notFound(err, "Error while deleting address.")
	}
	return a, nil
}
