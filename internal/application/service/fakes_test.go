package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/config"
	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/clock"
)

// memStore is the shared backing store for the in-memory fakes. The fakes
// copy values in and out so tests observe only what a repository Update
// actually persisted.
type memStore struct {
	contracts    map[uuid.UUID]entity.Contract
	installments map[uuid.UUID]entity.Installment
	payments     map[uuid.UUID]entity.Payment
	paymentOrder []uuid.UUID
	receipts     map[uuid.UUID]entity.Receipt
	users        map[uuid.UUID]entity.User
	customers    map[uuid.UUID]entity.Customer
	entries      []entity.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		contracts:    make(map[uuid.UUID]entity.Contract),
		installments: make(map[uuid.UUID]entity.Installment),
		payments:     make(map[uuid.UUID]entity.Payment),
		receipts:     make(map[uuid.UUID]entity.Receipt),
		users:        make(map[uuid.UUID]entity.User),
		customers:    make(map[uuid.UUID]entity.Customer),
	}
}

// snapshot copies the store so a failed workflow can be rolled back. Entity
// values are copied wholesale; the fakes already store by value.
func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for k, v := range s.contracts {
		snap.contracts[k] = v
	}
	for k, v := range s.installments {
		snap.installments[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	for k, v := range s.receipts {
		snap.receipts[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.customers {
		snap.customers[k] = v
	}
	snap.paymentOrder = append([]uuid.UUID(nil), s.paymentOrder...)
	snap.entries = append([]entity.LedgerEntry(nil), s.entries...)
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.contracts = snap.contracts
	s.installments = snap.installments
	s.payments = snap.payments
	s.receipts = snap.receipts
	s.users = snap.users
	s.customers = snap.customers
	s.paymentOrder = snap.paymentOrder
	s.entries = snap.entries
}

// fakeTxManager mimics transactional semantics over the shared store: a
// workflow that returns an error leaves no trace of its writes.
type fakeTxManager struct{ store *memStore }

func (t fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type fakeContractRepo struct{ store *memStore }

func (r *fakeContractRepo) Create(_ context.Context, c *entity.Contract) error {
	r.store.contracts[c.ID] = *c
	return nil
}

func (r *fakeContractRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Contract, error) {
	c, ok := r.store.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeContractRepo) GetWithInstallments(_ context.Context, id uuid.UUID) (*entity.Contract, error) {
	c, ok := r.store.contracts[id]
	if !ok {
		return nil, nil
	}
	for _, inst := range r.store.installments {
		if inst.ContractID == id {
			c.Installments = append(c.Installments, inst)
		}
	}
	sort.Slice(c.Installments, func(i, j int) bool {
		return c.Installments[i].InstallmentNumber < c.Installments[j].InstallmentNumber
	})
	return &c, nil
}

func (r *fakeContractRepo) GetByContractNumber(_ context.Context, number string) (*entity.Contract, error) {
	for _, c := range r.store.contracts {
		if c.ContractNumber == number {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeContractRepo) Update(_ context.Context, c *entity.Contract) error {
	stored := *c
	stored.Installments = nil
	r.store.contracts[c.ID] = stored
	return nil
}

func (r *fakeContractRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.contracts, id)
	return nil
}

func (r *fakeContractRepo) List(_ context.Context, params *repository.ContractFilterParams) ([]entity.Contract, int64, error) {
	var out []entity.Contract
	for _, c := range r.store.contracts {
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.CustomerID != nil && c.CustomerID != *params.CustomerID {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type fakeInstallmentRepo struct{ store *memStore }

func (r *fakeInstallmentRepo) CreateBatch(_ context.Context, installments []entity.Installment) error {
	for i := range installments {
		if installments[i].ID == uuid.Nil {
			installments[i].ID = uuid.New()
		}
		r.store.installments[installments[i].ID] = installments[i]
	}
	return nil
}

func (r *fakeInstallmentRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Installment, error) {
	inst, ok := r.store.installments[id]
	if !ok {
		return nil, nil
	}
	return &inst, nil
}

func (r *fakeInstallmentRepo) GetByContractID(_ context.Context, contractID uuid.UUID) ([]entity.Installment, error) {
	var out []entity.Installment
	for _, inst := range r.store.installments {
		if inst.ContractID == contractID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNumber < out[j].InstallmentNumber })
	return out, nil
}

func (r *fakeInstallmentRepo) GetUnpaidByContractID(_ context.Context, contractID uuid.UUID) ([]entity.Installment, error) {
	var out []entity.Installment
	for _, inst := range r.store.installments {
		if inst.ContractID != contractID {
			continue
		}
		switch inst.Status {
		case enum.InstallmentStatusPending, enum.InstallmentStatusPartiallyPaid, enum.InstallmentStatusOverdue:
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeInstallmentRepo) GetOverdue(_ context.Context, asOf time.Time) ([]entity.Installment, error) {
	var out []entity.Installment
	for _, inst := range r.store.installments {
		switch inst.Status {
		case enum.InstallmentStatusPending, enum.InstallmentStatusPartiallyPaid:
			if inst.DueDate.Before(asOf) {
				out = append(out, inst)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeInstallmentRepo) Update(_ context.Context, inst *entity.Installment) error {
	r.store.installments[inst.ID] = *inst
	return nil
}

type fakePaymentRepo struct{ store *memStore }

func (r *fakePaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	r.store.payments[p.ID] = *p
	r.store.paymentOrder = append(r.store.paymentOrder, p.ID)
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, ok := r.store.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakePaymentRepo) GetByContractID(_ context.Context, contractID uuid.UUID) ([]entity.Payment, error) {
	var out []entity.Payment
	for _, id := range r.store.paymentOrder {
		if p := r.store.payments[id]; p.ContractID == contractID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetByDateRange(_ context.Context, from, to time.Time) ([]entity.Payment, error) {
	var out []entity.Payment
	for _, id := range r.store.paymentOrder {
		p := r.store.payments[id]
		if !p.PaymentDate.Before(from) && !p.PaymentDate.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) GetReversalOf(_ context.Context, paymentID uuid.UUID) (*entity.Payment, error) {
	for _, id := range r.store.paymentOrder {
		p := r.store.payments[id]
		if p.ReversedPaymentID != nil && *p.ReversedPaymentID == paymentID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) List(_ context.Context, params *repository.PaymentFilterParams) ([]entity.Payment, int64, error) {
	var out []entity.Payment
	for _, id := range r.store.paymentOrder {
		p := r.store.payments[id]
		if params.ContractID != nil && p.ContractID != *params.ContractID {
			continue
		}
		if params.IsReversal != nil && p.IsReversal != *params.IsReversal {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

type fakeReceiptRepo struct{ store *memStore }

func (r *fakeReceiptRepo) Create(_ context.Context, receipt *entity.Receipt) error {
	r.store.receipts[receipt.ID] = *receipt
	return nil
}

func (r *fakeReceiptRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Receipt, error) {
	rec, ok := r.store.receipts[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeReceiptRepo) GetByPaymentID(_ context.Context, paymentID uuid.UUID) (*entity.Receipt, error) {
	for _, rec := range r.store.receipts {
		if rec.PaymentID == paymentID {
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *fakeReceiptRepo) GetByReceiptNumber(_ context.Context, number string) (*entity.Receipt, error) {
	for _, rec := range r.store.receipts {
		if rec.ReceiptNumber == number {
			return &rec, nil
		}
	}
	return nil, nil
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.store.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.store.users[u.ID] = *u
	return nil
}

type fakeCustomerRepo struct{ store *memStore }

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.store.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.store.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.customers, id)
	return nil
}

func (r *fakeCustomerRepo) List(_ context.Context, _ *repository.CustomerFilterParams) ([]entity.Customer, int64, error) {
	var out []entity.Customer
	for _, c := range r.store.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type fakeLedgerRepo struct {
	store *memStore
	// createErr, when set, makes Create fail so tests can exercise the
	// rollback path of the payment workflow.
	createErr error
}

func (r *fakeLedgerRepo) Create(_ context.Context, e *entity.LedgerEntry) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.store.entries = append(r.store.entries, *e)
	return nil
}

func (r *fakeLedgerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.LedgerEntry, error) {
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			e := r.store.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeLedgerRepo) GetByContractID(_ context.Context, contractID uuid.UUID) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.Archived || e.ContractID == nil || *e.ContractID != contractID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetByDateRange(_ context.Context, from, to time.Time) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.Archived || e.TransactionDate.Before(from) || e.TransactionDate.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetUpTo(_ context.Context, asOf time.Time) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.Archived || e.TransactionDate.After(asOf) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeLedgerRepo) List(_ context.Context, params *repository.LedgerFilterParams) ([]entity.LedgerEntry, int64, error) {
	var out []entity.LedgerEntry
	for i := range r.store.entries {
		e := r.store.entries[i]
		if e.Archived && !params.IncludeArchived {
			continue
		}
		if params.ContractID != nil && (e.ContractID == nil || *e.ContractID != *params.ContractID) {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLedgerRepo) SumDebitsCredits(_ context.Context, filter *repository.LedgerSumFilter) (decimal.Decimal, decimal.Decimal, error) {
	debit, credit := decimal.Zero, decimal.Zero
	for i := range r.store.entries {
		e := &r.store.entries[i]
		if e.Archived {
			continue
		}
		if filter != nil {
			if filter.ContractID != nil && (e.ContractID == nil || *e.ContractID != *filter.ContractID) {
				continue
			}
			if filter.CustomerID != nil && (e.CustomerID == nil || *e.CustomerID != *filter.CustomerID) {
				continue
			}
			if filter.From != nil && e.TransactionDate.Before(*filter.From) {
				continue
			}
			if filter.To != nil && e.TransactionDate.After(*filter.To) {
				continue
			}
		}
		debit = debit.Add(e.DebitAmount.Amount)
		credit = credit.Add(e.CreditAmount.Amount)
	}
	return debit, credit, nil
}

func (r *fakeLedgerRepo) Archive(_ context.Context, id uuid.UUID) error {
	for i := range r.store.entries {
		if r.store.entries[i].ID == id {
			r.store.entries[i].Archived = true
		}
	}
	return nil
}

// fixture wires the full service stack over one shared in-memory store with
// a frozen clock.
type fixture struct {
	store           *memStore
	clk             clock.Clock
	now             time.Time
	ledgerService   *LedgerService
	paymentService  *PaymentService
	contractService *ContractService

	contractRepo    *fakeContractRepo
	installmentRepo *fakeInstallmentRepo
	paymentRepo     *fakePaymentRepo
	receiptRepo     *fakeReceiptRepo
	ledgerRepo      *fakeLedgerRepo
	customerRepo    *fakeCustomerRepo
	userRepo        *fakeUserRepo
}

func newFixture() *fixture {
	store := newMemStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.Fixed(now)

	contractRepo := &fakeContractRepo{store: store}
	installmentRepo := &fakeInstallmentRepo{store: store}
	paymentRepo := &fakePaymentRepo{store: store}
	receiptRepo := &fakeReceiptRepo{store: store}
	ledgerRepo := &fakeLedgerRepo{store: store}
	customerRepo := &fakeCustomerRepo{store: store}
	userRepo := &fakeUserRepo{store: store}
	tx := fakeTxManager{store: store}

	cfg := config.LedgerConfig{
		DefaultCurrency:   "KES",
		CashAccount:       "Cash/Bank",
		ReceivableAccount: "Contracts Receivable",
	}

	ledgerService := NewLedgerService(ledgerRepo, paymentRepo, contractRepo, customerRepo, tx, cfg, clk)
	paymentService := NewPaymentService(contractRepo, installmentRepo, paymentRepo, receiptRepo, userRepo, ledgerService, tx, clk)
	contractService := NewContractService(contractRepo, installmentRepo, customerRepo, paymentRepo, ledgerService, tx, clk)

	return &fixture{
		store:           store,
		clk:             clk,
		now:             now,
		ledgerService:   ledgerService,
		paymentService:  paymentService,
		contractService: contractService,
		contractRepo:    contractRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		receiptRepo:     receiptRepo,
		ledgerRepo:      ledgerRepo,
		customerRepo:    customerRepo,
		userRepo:        userRepo,
	}
}

func (f *fixture) seedStaff() uuid.UUID {
	staff := entity.User{
		ID:        uuid.New(),
		FirstName: "Alice",
		LastName:  "Mwangi",
		Email:     "alice@example.com",
	}
	f.store.users[staff.ID] = staff
	return staff.ID
}

func (f *fixture) seedCustomer() uuid.UUID {
	customer := entity.Customer{
		ID:   uuid.New(),
		Name: "John Otieno",
	}
	f.store.customers[customer.ID] = customer
	return customer.ID
}

// seedActiveContract stores an Active contract with a generated schedule and
// returns it fully loaded.
func (f *fixture) seedActiveContract(total string, installments int) *entity.Contract {
	customerID := f.seedCustomer()
	amount, _ := valueobject.NewFromString(total, "KES")

	contract := &entity.Contract{
		ID:                   uuid.New(),
		ContractNumber:       "CT-" + uuid.NewString()[:8],
		CustomerID:           customerID,
		TotalAmount:          amount,
		OutstandingAmount:    amount,
		StartDate:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:               enum.ContractStatusDraft,
		NumberOfInstallments: installments,
	}
	if err := contract.Activate(); err != nil {
		panic(err)
	}
	if err := contract.GenerateInstallments(); err != nil {
		panic(err)
	}
	for i := range contract.Installments {
		contract.Installments[i].ID = uuid.New()
		f.store.installments[contract.Installments[i].ID] = contract.Installments[i]
	}

	stored := *contract
	stored.Installments = nil
	f.store.contracts[contract.ID] = stored
	return contract
}
