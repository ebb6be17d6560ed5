package model

import "fmt"

// Role determines which endpoints an employee may call
type Role string

const (
	RoleEmployee     Role = "Employee"
	RoleManager      Role = "Manager"
	RoleAssetManager Role = "AssetManager"
)

// ParseRole rejects anything outside the closed role set
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleManager, RoleAssetManager:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q: must be Employee, Manager, or AssetManager", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Level is the employee seniority grade
type Level string

const (
	LevelJunior Level = "Junior"
	LevelMid    Level = "Mid"
	LevelSenior Level = "Senior"
	LevelLead   Level = "Lead"
)

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelJunior, LevelMid, LevelSenior, LevelLead:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid level %q: must be Junior, Mid, Senior, or Lead", s)
}

func (l Level) Valid() bool {
	_, err := ParseLevel(string(l))
	return err == nil
}

// EmployeeStatus marks whether an employee may log in and receive assets
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "Active"
	EmployeeInactive EmployeeStatus = "Inactive"
)

func ParseEmployeeStatus(s string) (EmployeeStatus, error) {
	switch EmployeeStatus(s) {
	case EmployeeActive, EmployeeInactive:
		return EmployeeStatus(s), nil
	}
	return "", fmt.Errorf("invalid employee status %q: must be Active or Inactive", s)
}

func (s EmployeeStatus) Valid() bool {
	_, err := ParseEmployeeStatus(string(s))
	return err == nil
}

// ProductStatus is the asset lifecycle state. Free means in stock,
// Taken means currently issued to an employee.
type ProductStatus string

const (
	ProductFree  ProductStatus = "Free"
	ProductTaken ProductStatus = "Taken"
)

func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(s) {
	case ProductFree, ProductTaken:
		return ProductStatus(s), nil
	}
	return "", fmt.Errorf("invalid product status %q: must be Free or Taken", s)
}

func (s ProductStatus) Valid() bool {
	_, err := ParseProductStatus(string(s))
	return err == nil
}

// TransactionType distinguishes ledger entries
type TransactionType string

const (
	TxIssue  TransactionType = "Issue"
	TxReturn TransactionType = "Return"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TxIssue, TxReturn:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("invalid transaction type %q: must be Issue or Return", s)
}

func (t TransactionType) Valid() bool {
	_, err := ParseTransactionType(string(t))
	return err == nil
}
