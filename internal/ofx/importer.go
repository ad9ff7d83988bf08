// Package ofx imports OFX/QFX statements exported from other banks so
// their history can be analyzed alongside synced transactions.
package ofx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/hmoss/pocketwatch/internal/model"
)

// Importer parses OFX/QFX statement files.
type Importer struct{}

// NewImporter creates a new OFX importer.
func NewImporter() *Importer {
	return &Importer{}
}

// preprocess fixes common formatting issues in OFX files.
func (i *Importer) preprocess(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Import parses a statement file and returns its transactions in the
// same shape the sync path produces, so cache and analysis treat both
// sources identically.
func (i *Importer) Import(_ context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(i.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			accountID := string(stmt.BankAcctFrom.AcctID)
			currency := stmt.CurDef.String()
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, i.convert(ofxTx, accountID, currency))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			accountID := string(stmt.CCAcctFrom.AcctID)
			currency := stmt.CurDef.String()
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, i.convert(ofxTx, accountID, currency))
			}
		}
	}

	slog.Info("Imported OFX statement",
		"transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// Accounts extracts the unique account ids present in a statement file.
func (i *Importer) Accounts(_ context.Context, reader io.Reader) ([]string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(i.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	seen := make(map[string]bool)
	var accounts []string
	record := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			record(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			record(string(stmt.CCAcctFrom.AcctID))
		}
	}

	return accounts, nil
}

// convert maps one OFX transaction onto the wire form. OFX amounts are
// negative for debits, which matches the sync path, so signs pass
// through unchanged.
func (i *Importer) convert(ofxTx ofxgo.Transaction, accountID, currency string) model.Transaction {
	txn := model.Transaction{
		ID:          string(ofxTx.FiTID),
		AccountID:   accountID,
		Created:     ofxTx.DtPosted.Time.UTC().Format(time.RFC3339),
		Amount:      json.Number(strconv.FormatInt(minorUnits(&ofxTx.TrnAmt.Rat), 10)),
		Currency:    currency,
		Description: cleanName(ofxTx),
		Notes:       string(ofxTx.Memo),
		Category:    categoryForType(ofxTx.TrnType.String()),
	}

	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		txn.Merchant = &model.Merchant{Name: string(ofxTx.Payee.Name)}
	}

	return txn
}

// minorUnits converts a statement amount to integer minor units,
// rounding half away from zero.
func minorUnits(amount *big.Rat) int64 {
	scaled := new(big.Rat).Mul(amount, big.NewRat(100, 1))
	num := new(big.Int).Mul(scaled.Num(), big.NewInt(2))
	den := new(big.Int).Mul(scaled.Denom(), big.NewInt(2))
	if scaled.Sign() >= 0 {
		num.Add(num, scaled.Denom())
	} else {
		num.Sub(num, scaled.Denom())
	}
	return new(big.Int).Quo(num, den).Int64()
}

// cleanName strips the processor boilerplate banks prepend to the NAME
// field. Payee, when present, is already clean and wins.
func cleanName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop leading "MM/DD " date stamps
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

// categoryForType infers a coarse category from the OFX transaction
// type. Card purchases carry no category data, so they stay general.
func categoryForType(trnType string) model.Category {
	switch trnType {
	case "INT", "DIV":
		return model.CategoryIncome
	case "FEE", "SRVCHG":
		return model.CategoryBills
	case "ATM":
		return model.CategoryCash
	case "XFER":
		return model.CategoryTransfers
	default:
		return model.CategoryGeneral
	}
}
