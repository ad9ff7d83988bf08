package ofx

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoss/pocketwatch/internal/model"
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
<CURDEF>GBP
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
<TRNAMT>-15.99
<FITID>2024011501
<NAME>NETFLIX.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>POS PURCHASE TESCO STORES
<MEMO>contactless
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>3.21
<FITID>2024012501
<NAME>INTEREST PAID
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
<CURDEF>GBP
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
<NAME>AMAZON.CO.UK*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>SPOTIFY AB
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

func TestImport(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty file",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer := NewImporter()
			transactions, err := importer.Import(context.Background(), strings.NewReader(tt.ofxData))
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, transactions, tt.expectedCount)
		})
	}
}

func TestImportBankStatement(t *testing.T) {
	importer := NewImporter()
	transactions, err := importer.Import(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	netflix := transactions[0]
	assert.Equal(t, "2024011501", netflix.ID)
	assert.Equal(t, "1234567890", netflix.AccountID)
	assert.Equal(t, "NETFLIX.COM", netflix.Description)
	assert.Equal(t, "GBP", netflix.Currency)
	assert.Equal(t, "2024-01-15T12:00:00Z", netflix.Created)

	amount, err := netflix.MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(-1599), amount)

	ts, err := netflix.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, 15, ts.Day())

	tesco := transactions[1]
	assert.Equal(t, "TESCO STORES", tesco.Description, "processor prefix should be stripped")
	assert.Equal(t, "contactless", tesco.Notes)

	interest := transactions[2]
	assert.Equal(t, model.CategoryIncome, interest.Category)
	amount, err = interest.MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(321), amount)
}

func TestImportCreditCardStatement(t *testing.T) {
	importer := NewImporter()
	transactions, err := importer.Import(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, "CC2024011001", transactions[0].ID)
	assert.Equal(t, "4111111111111111", transactions[0].AccountID)

	spotify := transactions[1]
	amount, err := spotify.MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(-1500), amount)
	assert.Equal(t, "SPOTIFY AB", spotify.Description)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"remove POS prefix", "POS PURCHASE STARBUCKS", "STARBUCKS"},
		{"remove debit card prefix", "DEBIT CARD PURCHASE WAITROSE", "WAITROSE"},
		{"keep clean name", "NETFLIX.COM", "NETFLIX.COM"},
		{"trim whitespace", "  AMAZON.CO.UK  ", "AMAZON.CO.UK"},
		{"strip leading date stamp", "01/15 PRET A MANGER", "PRET A MANGER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{Name: ofxgo.String(tt.input)}
			assert.Equal(t, tt.expected, cleanName(tx))
		})
	}
}

func TestCleanName_PrefersPayee(t *testing.T) {
	tx := ofxgo.Transaction{
		Name:  ofxgo.String("POS PURCHASE 99887766"),
		Payee: &ofxgo.Payee{Name: ofxgo.String("Pret a Manger")},
	}
	assert.Equal(t, "Pret a Manger", cleanName(tx))
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		num      int64
		den      int64
		expected int64
	}{
		{"whole pounds", -125, 1, -12500},
		{"pence", -1599, 100, -1599},
		{"credit", 321, 100, 321},
		{"rounds half up", 125, 1000, 13},
		{"rounds half away from zero", -125, 1000, -13},
		{"zero", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, minorUnits(big.NewRat(tt.num, tt.den)))
		})
	}
}

func TestAccounts(t *testing.T) {
	importer := NewImporter()

	accounts, err := importer.Accounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, accounts)

	accounts, err = importer.Accounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}
