// Package ofx reads OFX/QFX bank and credit card statements into
// transactions the forecast engine can use as spending history.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line with no closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// merchantPrefixes are stripped from the front of transaction names.
var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// Statement is one account's transactions from an OFX file.
type Statement struct {
	AccountNumber string
	AccountType   model.AccountType
	Entries       []Entry
}

// Entry is a single posted statement line. AmountCents is signed like the
// file: negative for debits.
type Entry struct {
	Posted      time.Time
	FITID       string
	Description string
	Type        string
	AmountCents int64
}

// AccountName is the display name imported accounts are stored under, such
// as "checking ...7890".
func (s Statement) AccountName() string {
	number := s.AccountNumber
	if len(number) > 4 {
		number = number[len(number)-4:]
	}
	return fmt.Sprintf("%s ...%s", s.AccountType, number)
}

// Transactions converts the statement's entries for storage. Expenses are
// assigned expenseCategory, which may be nil; income stays uncategorized.
func (s Statement) Transactions(userID, accountID int64, expenseCategory *int64) []model.Transaction {
	txns := make([]model.Transaction, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.AmountCents == 0 {
			continue
		}
		txn := model.Transaction{
			Date:        e.Posted,
			Description: e.Description,
			ExternalID:  e.FITID,
			UserID:      userID,
			AccountID:   accountID,
			AmountCents: e.AmountCents,
		}
		if txn.IsExpense() {
			txn.CategoryID = expenseCategory
		}
		txns = append(txns, txn)
	}
	return txns
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads every bank and credit card statement in the file.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement
	entries := 0

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		s := Statement{
			AccountNumber: string(stmt.BankAcctFrom.AcctID),
			AccountType:   bankAccountType(stmt.BankAcctFrom.AcctType.String()),
		}
		if stmt.BankTranList != nil {
			s.Entries = p.convertAll(stmt.BankTranList.Transactions, s.AccountNumber)
		}
		entries += len(s.Entries)
		statements = append(statements, s)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		s := Statement{
			AccountNumber: string(stmt.CCAcctFrom.AcctID),
			AccountType:   model.AccountCredit,
		}
		if stmt.BankTranList != nil {
			s.Entries = p.convertAll(stmt.BankTranList.Transactions, s.AccountNumber)
		}
		entries += len(s.Entries)
		statements = append(statements, s)
	}

	slog.Info("Parsed OFX file",
		"statements", len(statements),
		"entries", entries)

	return statements, nil
}

func (p *Parser) convertAll(txns []ofxgo.Transaction, account string) []Entry {
	entries := make([]Entry, 0, len(txns))
	for _, t := range txns {
		e, err := p.convertTransaction(t)
		if err != nil {
			slog.Warn("Skipping OFX transaction",
				"account", account,
				"fitid", string(t.FiTID),
				"error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// convertTransaction converts an OFX transaction to a statement entry.
func (p *Parser) convertTransaction(t ofxgo.Transaction) (Entry, error) {
	amount, err := decimal.NewFromString(t.TrnAmt.FloatString(2))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid amount: %w", err)
	}

	return Entry{
		Posted:      t.DtPosted.Time.UTC(),
		FITID:       string(t.FiTID),
		Description: p.extractMerchantName(t),
		Type:        t.TrnType.String(),
		AmountCents: model.DollarsToCents(amount),
	}, nil
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)

	// MEMO sometimes has better merchant info.
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

func bankAccountType(ofxType string) model.AccountType {
	switch strings.ToUpper(ofxType) {
	case "SAVINGS", "MONEYMRKT":
		return model.AccountSavings
	case "CREDITLINE":
		return model.AccountCredit
	default:
		return model.AccountChecking
	}
}
