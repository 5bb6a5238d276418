// Package roles maps semantic account roles to chart-of-accounts codes.
// Collaborators receive an injected Table instead of repeating literal codes
// at every call site.
package roles

import (
	"fmt"
	"strings"
)

// Role names a semantic slot in the chart of accounts.
type Role string

const (
	Cash               Role = "CASH"
	Bank               Role = "BANK"
	AccountsReceivable Role = "ACCOUNTS_RECEIVABLE"
	FuelInventory      Role = "FUEL_INVENTORY"
	AccountsPayable    Role = "ACCOUNTS_PAYABLE"
	OwnerEquity        Role = "OWNER_EQUITY"
	FuelSales          Role = "FUEL_SALES"
	StockGain          Role = "STOCK_GAIN"
	GeneralExpenses    Role = "GENERAL_EXPENSES"
	COGS               Role = "COGS"
	StockLoss          Role = "STOCK_LOSS"
)

// Table resolves roles to account codes.
type Table struct {
	codes map[Role]string
}

// Defaults returns the fixed petrol-station chart convention.
func Defaults() *Table {
	return &Table{codes: map[Role]string{
		Cash:               "10101",
		Bank:               "10201",
		AccountsReceivable: "10301",
		FuelInventory:      "10401",
		AccountsPayable:    "20101",
		OwnerEquity:        "30101",
		FuelSales:          "40101",
		StockGain:          "40201",
		GeneralExpenses:    "50101",
		COGS:               "50201",
		StockLoss:          "50301",
	}}
}

// WithOverrides returns a copy of the table with selected roles remapped.
func (t *Table) WithOverrides(overrides map[Role]string) *Table {
	codes := make(map[Role]string, len(t.codes))
	for role, code := range t.codes {
		codes[role] = code
	}
	for role, code := range overrides {
		codes[role] = code
	}
	return &Table{codes: codes}
}

// Code resolves a role to its account code.
func (t *Table) Code(role Role) (string, error) {
	code, ok := t.codes[role]
	if !ok {
		return "", fmt.Errorf("roles: no account mapped for role %s", role)
	}
	return code, nil
}

// ForPaymentMethod resolves a settlement method to the default funding role.
func ForPaymentMethod(method string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "CASH":
		return Cash, nil
	case "BANK", "TRANSFER", "CARD", "CHEQUE":
		return Bank, nil
	default:
		return "", fmt.Errorf("roles: unsupported payment method %q", method)
	}
}
