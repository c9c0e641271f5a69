package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

type AddressInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Surname    string `json:"surname" validate:"required,max=255"`
	Country    string `json:"country" validate:"required,max=100"`
	City       string `json:"city" validate:"required,max=255"`
	Street     string `json:"street" validate:"required,max=255"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Phone      string `json:"phone" validate:"max=30"`
}

type AddressOutput struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Surname    string    `json:"surname"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (AddressOutput, error) {
	if userID <= 0 {
		return AddressOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:     userID,
		Name:       strings.TrimSpace(in.Name),
		Surname:    strings.TrimSpace(in.Surname),
		Country:    strings.TrimSpace(in.Country),
		City:       strings.TrimSpace(in.City),
		Street:     strings.TrimSpace(in.Street),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Phone:      strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return AddressOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toAddressOutput(created), nil
}

func (u *AddressUsecase) ListMine(ctx context.Context, userID int64) ([]AddressOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	addrs, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]AddressOutput, 0, len(addrs))
	for _, a := range addrs {
		outs = append(outs, toAddressOutput(a))
	}
	return outs, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) (AddressOutput, error) {
	if userID <= 0 {
		return AddressOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return AddressOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return AddressOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return AddressOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//他人の住所は存在しない扱い
	if a.UserID != userID {
		return AddressOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	a.Name = strings.TrimSpace(in.Name)
	a.Surname = strings.TrimSpace(in.Surname)
	a.Country = strings.TrimSpace(in.Country)
	a.City = strings.TrimSpace(in.City)
	a.Street = strings.TrimSpace(in.Street)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.Phone = strings.TrimSpace(in.Phone)

	if err := u.addresses.Update(ctx, a); err != nil {
		return AddressOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toAddressOutput(a), nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toAddressOutput(a model.Address) AddressOutput {
	return AddressOutput{
		ID:         a.ID,
		UserID:     a.UserID,
		Name:       a.Name,
		Surname:    a.Surname,
		Country:    a.Country,
		City:       a.City,
		Street:     a.Street,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
		CreatedAt:  a.CreatedAt,
	}
}
