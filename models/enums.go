package models

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mmdatafocus/distribution_backend/appctx"
)

type OrderStatus string

const (
	OrderStatusNew                 OrderStatus = "NEW"
	OrderStatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	OrderStatusInProcess           OrderStatus = "IN_PROCESS"
	OrderStatusCompleted           OrderStatus = "COMPLETED"
	OrderStatusCanceled            OrderStatus = "CANCELED"
)

// OrderStatusPipeline is the display order of the statuses.
var OrderStatusPipeline = []OrderStatus{
	OrderStatusNew,
	OrderStatusPendingConfirmation,
	OrderStatusInProcess,
	OrderStatusCompleted,
	OrderStatusCanceled,
}

func (s OrderStatus) IsValid() bool {
	for _, v := range OrderStatusPipeline {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// Label is the human readable form used in exports and history.
func (s OrderStatus) Label() string {
	words := strings.Split(strings.ToLower(string(s)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// convert input to enum type
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("order status must be string")
	}
	v := OrderStatus(strings.ToUpper(strings.TrimSpace(str)))
	if !v.IsValid() {
		return errors.New("invalid order status")
	}
	*s = v
	return nil
}

// UserRole is stored on users and mirrors the session role.
type UserRole = appctx.Role

const (
	UserRoleAdmin = appctx.RoleAdmin
	UserRoleOwner = appctx.RoleOwner
	UserRoleSales = appctx.RoleSales
)

type ReferenceType string

const (
	ReferenceTypeOrder         ReferenceType = "orders"
	ReferenceTypePurchaseOrder ReferenceType = "purchase_orders"
	ReferenceTypeExpense       ReferenceType = "expenses"
	ReferenceTypeVisit         ReferenceType = "visits"
)

type ActionType string

const (
	ActionTypeCreate ActionType = "CREATE"
	ActionTypeUpdate ActionType = "UPDATE"
	ActionTypeDelete ActionType = "DELETE"
	ActionTypeStatus ActionType = "STATUS"
)

type ExpenseCategory string

const (
	ExpenseCategoryOperational ExpenseCategory = "OPERATIONAL"
	ExpenseCategoryTransport   ExpenseCategory = "TRANSPORT"
	ExpenseCategorySalary      ExpenseCategory = "SALARY"
	ExpenseCategoryUtility     ExpenseCategory = "UTILITY"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryOperational, ExpenseCategoryTransport, ExpenseCategorySalary, ExpenseCategoryUtility, ExpenseCategoryOther:
		return true
	}
	return false
}
