package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParse_Bank(t *testing.T) {
	statements, err := NewParser().Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, statements, 1)

	stmt := statements[0]
	assert.Equal(t, "1234567890", stmt.AccountNumber)
	assert.Equal(t, model.AccountChecking, stmt.AccountType)
	assert.Equal(t, "checking ...7890", stmt.AccountName())
	require.Len(t, stmt.Entries, 3)

	first := stmt.Entries[0]
	assert.Equal(t, "2024011501", first.FITID)
	assert.Equal(t, int64(-2550), first.AmountCents)
	assert.Equal(t, "STARBUCKS STORE #1234", first.Description)
	assert.True(t, first.Posted.Equal(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, int64(-50000), stmt.Entries[2].AmountCents)
}

func TestParse_CreditCard(t *testing.T) {
	statements, err := NewParser().Parse(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, statements, 1)

	stmt := statements[0]
	assert.Equal(t, model.AccountCredit, stmt.AccountType)
	assert.Equal(t, "credit ...1111", stmt.AccountName())
	require.Len(t, stmt.Entries, 2)
	assert.Equal(t, int64(-4599), stmt.Entries[0].AmountCents)
	assert.Equal(t, "NETFLIX.COM", stmt.Entries[1].Description)
}

func TestParse_Errors(t *testing.T) {
	t.Run("leading whitespace is tolerated", func(t *testing.T) {
		statements, err := NewParser().Parse(context.Background(), strings.NewReader("\n\n  "+sampleBankOFX))
		require.NoError(t, err)
		assert.Len(t, statements, 1)
	})

	t.Run("invalid content", func(t *testing.T) {
		_, err := NewParser().Parse(context.Background(), strings.NewReader("not an ofx file"))
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewParser().Parse(ctx, strings.NewReader(sampleBankOFX))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStatementTransactions(t *testing.T) {
	categoryID := int64(9)
	stmt := Statement{
		AccountNumber: "42",
		AccountType:   model.AccountSavings,
		Entries: []Entry{
			{FITID: "a", AmountCents: -1250, Description: "Market"},
			{FITID: "b", AmountCents: 300000, Description: "Payroll"},
			{FITID: "c", AmountCents: 0},
		},
	}

	txns := stmt.Transactions(3, 5, &categoryID)
	require.Len(t, txns, 2)

	assert.Equal(t, "a", txns[0].ExternalID)
	assert.Equal(t, int64(3), txns[0].UserID)
	assert.Equal(t, int64(5), txns[0].AccountID)
	require.NotNil(t, txns[0].CategoryID)
	assert.Equal(t, categoryID, *txns[0].CategoryID)
	assert.Nil(t, txns[1].CategoryID)
	assert.Equal(t, "savings ...42", stmt.AccountName())
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{name: "remove POS prefix", tx: ofxgo.Transaction{Name: "POS PURCHASE STARBUCKS"}, expected: "STARBUCKS"},
		{name: "remove DEBIT CARD prefix", tx: ofxgo.Transaction{Name: "DEBIT CARD PURCHASE WHOLE FOODS"}, expected: "WHOLE FOODS"},
		{name: "keep clean name", tx: ofxgo.Transaction{Name: "NETFLIX.COM"}, expected: "NETFLIX.COM"},
		{name: "trim whitespace", tx: ofxgo.Transaction{Name: "  AMAZON.COM  "}, expected: "AMAZON.COM"},
		{name: "strip leading date", tx: ofxgo.Transaction{Name: "01/15 CORNER BAKERY"}, expected: "CORNER BAKERY"},
		{name: "generic name uses memo", tx: ofxgo.Transaction{Name: "DEBIT", Memo: "FARMERS MARKET"}, expected: "FARMERS MARKET"},
		{name: "payee wins", tx: ofxgo.Transaction{Name: "POS PURCHASE X", Payee: &ofxgo.Payee{Name: "Bookshop"}}, expected: "Bookshop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.extractMerchantName(tt.tx))
		})
	}
}

func TestBankAccountType(t *testing.T) {
	assert.Equal(t, model.AccountSavings, bankAccountType("SAVINGS"))
	assert.Equal(t, model.AccountCredit, bankAccountType("CREDITLINE"))
	assert.Equal(t, model.AccountChecking, bankAccountType("CHECKING"))
}
