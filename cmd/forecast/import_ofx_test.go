package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GitLars0/budget-forecast/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardStatement = `OFXHEADER:100
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
<DTSTART>20240301120000[0:GMT]
<DTEND>20240331120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305120000[0:GMT]
<TRNAMT>-82.40
<FITID>CC2024030501
<NAME>POS PURCHASE CORNER GROCER
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240312120000[0:GMT]
<TRNAMT>-17.60
<FITID>CC2024031201
<NAME>FARM STAND
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240320120000[0:GMT]
<TRNAMT>250.00
<FITID>CC2024032001
<NAME>PAYMENT THANK YOU
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-100.00
<DTASOF>20240331120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func writeStatement(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(cardStatement), 0o600))
	return path
}

func TestImportFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	h := testutil.NewHousehold(t, db, "ivy").WithCategories("Groceries").Build()
	groceries := h.Category("Groceries")

	dir := t.TempDir()
	path := writeStatement(t, dir, "march.qfx")

	summary, err := importFiles(ctx, db, h.User.ID, &groceries, []string{path}, false)
	require.NoError(t, err)
	assert.Equal(t, importSummary{Files: 1, Statements: 1, Parsed: 3, Imported: 3}, summary)

	records, err := db.SpendingRecords(ctx, h.User.ID, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, groceries, records[0].CategoryID)
	assert.Equal(t, int64(8240), records[0].AmountCents)
	assert.Equal(t, "CORNER GROCER", records[0].Description)

	t.Run("reimport skips known transactions", func(t *testing.T) {
		again, err := importFiles(ctx, db, h.User.ID, &groceries, []string{path}, false)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Parsed)
		assert.Zero(t, again.Imported)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		other := testutil.NewHousehold(t, db, "jay").Build()
		dry, err := importFiles(ctx, db, other.User.ID, nil, []string{path}, true)
		require.NoError(t, err)
		assert.Equal(t, 3, dry.Parsed)
		assert.Zero(t, dry.Imported)

		records, err := db.SpendingRecords(ctx, other.User.ID, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("unreadable files are skipped", func(t *testing.T) {
		bad := filepath.Join(dir, "broken.qfx")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))

		skipped, err := importFiles(ctx, db, h.User.ID, nil, []string{bad, filepath.Join(dir, "missing.qfx")}, false)
		require.NoError(t, err)
		assert.Zero(t, skipped.Files)
	})
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	a := writeStatement(t, dir, "a.qfx")
	b := writeStatement(t, dir, "b.qfx")

	files, err := expandPatterns([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	_, err = expandPatterns([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}
