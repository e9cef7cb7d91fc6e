package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// InstallmentStatus represents the payment-allocation status of an installment
type InstallmentStatus int

const (
	InstallmentStatusPending       InstallmentStatus = 0
	InstallmentStatusPartiallyPaid InstallmentStatus = 1
	InstallmentStatusPaid          InstallmentStatus = 2
	InstallmentStatusOverdue       InstallmentStatus = 3
	InstallmentStatusWaived        InstallmentStatus = 4
)

// installmentTransitions lists the valid targets per current status.
// Paid goes back to Pending or PartiallyPaid only through payment reversal;
// Waived goes back to Pending only through an explicit unwaive.
var installmentTransitions = map[InstallmentStatus][]InstallmentStatus{
	InstallmentStatusPending:       {InstallmentStatusPartiallyPaid, InstallmentStatusPaid, InstallmentStatusOverdue, InstallmentStatusWaived},
	InstallmentStatusPartiallyPaid: {InstallmentStatusPaid, InstallmentStatusOverdue, InstallmentStatusWaived, InstallmentStatusPending},
	InstallmentStatusOverdue:       {InstallmentStatusPartiallyPaid, InstallmentStatusPaid, InstallmentStatusWaived},
	InstallmentStatusPaid:          {InstallmentStatusPending, InstallmentStatusPartiallyPaid},
	InstallmentStatusWaived:        {InstallmentStatusPending},
}

// CanTransition reports whether an installment may move from one status to another
func (s InstallmentStatus) CanTransition(to InstallmentStatus) bool {
	for _, t := range installmentTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsSettled reports whether the installment requires no further payment
func (s InstallmentStatus) IsSettled() bool {
	return s == InstallmentStatusPaid || s == InstallmentStatusWaived
}

func (s InstallmentStatus) String() string {
	return [...]string{"Pending", "PartiallyPaid", "Paid", "Overdue", "Waived"}[s]
}

func (s InstallmentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *InstallmentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = InstallmentStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*s = InstallmentStatusPending
	case "PartiallyPaid":
		*s = InstallmentStatusPartiallyPaid
	case "Paid":
		*s = InstallmentStatusPaid
	case "Overdue":
		*s = InstallmentStatusOverdue
	case "Waived":
		*s = InstallmentStatusWaived
	}
	return nil
}

func (s InstallmentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *InstallmentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InstallmentStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = InstallmentStatus(v)
	case int:
		*s = InstallmentStatus(v)
	}
	return nil
}
