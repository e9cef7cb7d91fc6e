package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ContractStatus represents the lifecycle status of a contract
type ContractStatus int

const (
	ContractStatusDraft     ContractStatus = 0
	ContractStatusActive    ContractStatus = 1
	ContractStatusSuspended ContractStatus = 2
	ContractStatusCompleted ContractStatus = 3
	ContractStatusCancelled ContractStatus = 4
	ContractStatusDefaulted ContractStatus = 5
)

// contractTransitions is the single source of truth for valid contract
// status changes. Anything not listed is rejected.
var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:     {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:    {ContractStatusSuspended, ContractStatusCompleted, ContractStatusCancelled, ContractStatusDefaulted},
	ContractStatusSuspended: {ContractStatusActive, ContractStatusCancelled},
	ContractStatusCompleted: {},
	ContractStatusCancelled: {},
	ContractStatusDefaulted: {ContractStatusCancelled},
}

// CanTransition reports whether a contract may move from one status to another
func (s ContractStatus) CanTransition(to ContractStatus) bool {
	for _, t := range contractTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s ContractStatus) String() string {
	return [...]string{"Draft", "Active", "Suspended", "Completed", "Cancelled", "Defaulted"}[s]
}

func (s ContractStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ContractStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ContractStatus(i)
		return nil
	}
	switch str {
	case "Draft":
		*s = ContractStatusDraft
	case "Active":
		*s = ContractStatusActive
	case "Suspended":
		*s = ContractStatusSuspended
	case "Completed":
		*s = ContractStatusCompleted
	case "Cancelled":
		*s = ContractStatusCancelled
	case "Defaulted":
		*s = ContractStatusDefaulted
	}
	return nil
}

// ParseContractStatus maps a status name to its value
func ParseContractStatus(str string) (ContractStatus, error) {
	switch str {
	case "Draft":
		return ContractStatusDraft, nil
	case "Active":
		return ContractStatusActive, nil
	case "Suspended":
		return ContractStatusSuspended, nil
	case "Completed":
		return ContractStatusCompleted, nil
	case "Cancelled":
		return ContractStatusCancelled, nil
	case "Defaulted":
		return ContractStatusDefaulted, nil
	}
	return ContractStatusDraft, fmt.Errorf("unknown contract status %q", str)
}

func (s ContractStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ContractStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ContractStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ContractStatus(v)
	case int:
		*s = ContractStatus(v)
	}
	return nil
}
