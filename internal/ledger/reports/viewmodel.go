package reports

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a decimal with thousand separators for display
// columns alongside the exact machine value.
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprintf("%.2f", f)
}

// TrialBalanceRowView is the wire shape of one trial balance line.
type TrialBalanceRowView struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Debit   string `json:"debit"`
	Credit  string `json:"credit"`
	Balance string `json:"balance"`
	Display string `json:"display"`
}

// TrialBalanceView is the wire shape of the trial balance report.
type TrialBalanceView struct {
	Accounts    []TrialBalanceRowView `json:"accounts"`
	TotalDebit  string                `json:"totalDebit"`
	TotalCredit string                `json:"totalCredit"`
	IsBalanced  bool                  `json:"isBalanced"`
}

// NewTrialBalanceView converts the report into its wire shape.
func NewTrialBalanceView(tb TrialBalance) TrialBalanceView {
	view := TrialBalanceView{
		TotalDebit:  tb.TotalDebit.StringFixed(2),
		TotalCredit: tb.TotalCredit.StringFixed(2),
		IsBalanced:  tb.IsBalanced,
	}
	for _, row := range tb.Accounts {
		view.Accounts = append(view.Accounts, TrialBalanceRowView{
			Code:    row.Code,
			Name:    row.Name,
			Debit:   row.Debit.StringFixed(2),
			Credit:  row.Credit.StringFixed(2),
			Balance: row.Balance.StringFixed(2),
			Display: FormatAmount(row.Balance),
		})
	}
	return view
}

// BalanceSheetSectionView is the wire shape of one balance sheet section.
type BalanceSheetSectionView struct {
	Label    string              `json:"label"`
	Accounts []map[string]string `json:"accounts"`
	Total    string              `json:"total"`
}

// BalanceSheetView is the wire shape of the balance sheet report.
type BalanceSheetView struct {
	Assets      BalanceSheetSectionView `json:"assets"`
	Liabilities BalanceSheetSectionView `json:"liabilities"`
	Equity      BalanceSheetSectionView `json:"equity"`
	NetProfit   string                  `json:"netProfit"`
	IsBalanced  bool                    `json:"isBalanced"`
}

func sectionView(section BalanceSheetSection) BalanceSheetSectionView {
	view := BalanceSheetSectionView{Label: section.Label, Total: section.Total.StringFixed(2)}
	for _, acc := range section.Accounts {
		view.Accounts = append(view.Accounts, map[string]string{
			"code":    acc.Code,
			"name":    acc.Name,
			"balance": acc.Balance.StringFixed(2),
			"display": FormatAmount(acc.Balance),
		})
	}
	return view
}

// NewBalanceSheetView converts the report into its wire shape.
func NewBalanceSheetView(bs BalanceSheet) BalanceSheetView {
	return BalanceSheetView{
		Assets:      sectionView(bs.Assets),
		Liabilities: sectionView(bs.Liabilities),
		Equity:      sectionView(bs.Equity),
		NetProfit:   bs.NetProfit.StringFixed(2),
		IsBalanced:  bs.IsBalanced,
	}
}

// ProfitAndLossView is the wire shape of the profit and loss report.
type ProfitAndLossView struct {
	Income        []map[string]string `json:"income"`
	Expenses      []map[string]string `json:"expenses"`
	TotalIncome   string              `json:"totalIncome"`
	TotalExpenses string              `json:"totalExpenses"`
	NetProfit     string              `json:"netProfit"`
}

// NewProfitAndLossView converts the report into its wire shape.
func NewProfitAndLossView(pl ProfitAndLoss) ProfitAndLossView {
	view := ProfitAndLossView{
		TotalIncome:   pl.Income.Total.StringFixed(2),
		TotalExpenses: pl.Expenses.Total.StringFixed(2),
		NetProfit:     pl.NetProfit.StringFixed(2),
	}
	for _, acc := range pl.Income.Accounts {
		view.Income = append(view.Income, map[string]string{
			"code": acc.Code, "name": acc.Name, "amount": acc.Amount.StringFixed(2),
		})
	}
	for _, acc := range pl.Expenses.Accounts {
		view.Expenses = append(view.Expenses, map[string]string{
			"code": acc.Code, "name": acc.Name, "amount": acc.Amount.StringFixed(2),
		})
	}
	return view
}

// LedgerEntryView is the wire shape of one ledger statement line.
type LedgerEntryView struct {
	TransactionID int64  `json:"transactionId"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Running       string `json:"running"`
}

// AccountLedgerView is the wire shape of the per-account statement.
type AccountLedgerView struct {
	AccountID int64             `json:"accountId"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Opening   string            `json:"opening"`
	Closing   string            `json:"closing"`
	Entries   []LedgerEntryView `json:"entries"`
}

// NewAccountLedgerView converts the statement into its wire shape.
func NewAccountLedgerView(ledger AccountLedger) AccountLedgerView {
	view := AccountLedgerView{
		AccountID: ledger.Account.ID,
		Code:      ledger.Account.Code,
		Name:      ledger.Account.Name,
		Type:      string(ledger.Account.Type),
		Opening:   ledger.Opening.StringFixed(2),
		Closing:   ledger.Closing.StringFixed(2),
	}
	for _, entry := range ledger.Entries {
		view.Entries = append(view.Entries, LedgerEntryView{
			TransactionID: entry.TransactionID,
			Date:          entry.Date.Format("2006-01-02 15:04:05"),
			Description:   entry.Description,
			Debit:         entry.Debit.StringFixed(2),
			Credit:        entry.Credit.StringFixed(2),
			Running:       entry.Running.StringFixed(2),
		})
	}
	return view
}
