package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/pkg/apperror"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// CustomerService handles debtor record operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
	contractRepo repository.ContractRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	contractRepo repository.ContractRepository,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		contractRepo: contractRepo,
	}
}

// CustomerInput carries the fields for creating or updating a customer
type CustomerInput struct {
	Name         string
	Email        *string
	Phone        *string
	NationalID   *string
	Address      *string
	EmployerName *string
	Notes        *string
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CustomerInput) (*entity.Customer, error) {
	if input.Name == "" {
		return nil, apperror.NewBadRequestError("Customer name is required")
	}

	customer := &entity.Customer{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		NationalID:   input.NationalID,
		Address:      input.Address,
		EmployerName: input.EmployerName,
		Notes:        input.Notes,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer returns a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// UpdateCustomer updates a customer's details
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	if input.Name != "" {
		customer.Name = input.Name
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.NationalID != nil {
		customer.NationalID = input.NationalID
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if input.EmployerName != nil {
		customer.EmployerName = input.EmployerName
	}
	if input.Notes != nil {
		customer.Notes = input.Notes
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer soft-deletes a customer. Customers with contracts that are
// not closed cannot be deleted.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}

	contracts, _, err := s.contractRepo.List(ctx, &repository.ContractFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 100},
		CustomerID: &id,
	})
	if err != nil {
		return err
	}
	for i := range contracts {
		switch contracts[i].Status {
		case enum.ContractStatusCompleted, enum.ContractStatusCancelled:
		default:
			return apperror.NewInvalidStateError("Customer has open contracts")
		}
	}

	return s.customerRepo.Delete(ctx, id)
}

// ListCustomers returns a filtered page of customers
func (s *CustomerService) ListCustomers(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, int64, error) {
	return s.customerRepo.List(ctx, params)
}
