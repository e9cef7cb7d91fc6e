package enum

// ReferenceType identifies what a ledger entry's reference ID points at
type ReferenceType string

const (
	ReferenceTypePayment  ReferenceType = "payment"
	ReferenceTypeContract ReferenceType = "contract"
	ReferenceTypeCustomer ReferenceType = "customer"
	// ReferenceTypeSystem marks internal adjustments (reconciliation
	// balancing entries); these have no backing record to validate.
	ReferenceTypeSystem ReferenceType = "system"
)

// Valid reports whether the reference type is one of the known values
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceTypePayment, ReferenceTypeContract, ReferenceTypeCustomer, ReferenceTypeSystem:
		return true
	}
	return false
}
