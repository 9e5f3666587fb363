package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidishraj/akkountant/config"
	"github.com/vidishraj/akkountant/extractor/common"
)

const (
	hdfcUPI = "Dear Customer, Rs.1,250.00 has been debited from account **1234 to VPA swiggy@icici SWIGGY on 15-03-24. " +
		"Your UPI transaction reference number is 407512345678. If you did not authorize this transaction"
	milleniaAlert = "Thank you for using your HDFC Bank Credit Card ending 4321 for Rs 999.00 at AMAZON on 02-04-2024 18:22:10. " +
		"Authorization code:- 123456 Please call"
	iciciAlert = "Your ICICI Bank Credit Card XX1234 has been used for a transaction of INR 2,300.50 on Mar 15, 2024 at 10:21:00. " +
		"Info: IRCTC. The Available Credit Limit"
	yesAlert = "INR 640.00 has been spent on your YES BANK Credit Card ending with 9876 at ZOMATO on 11-05-2024 at 09:15:02 pm. " +
		"Avl Bal INR 45,210.00 Thank you"
)

func TestExtract_HDFCDebit(t *testing.T) {
	config.UseDefaults()

	txs, conflicts, err := Extract([]string{hdfcUPI}, "HDFC_DEBIT")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Empty(t, conflicts)

	tx := txs[0]
	assert.Equal(t, "swiggy@icici SWIGGY", tx.Description)
	assert.Equal(t, "1250", tx.Amount.String())
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local), tx.Date)
	assert.Equal(t, common.ReferenceID(tx.Date, tx.Description, tx.Amount), tx.ReferenceID)
}

func TestExtract_AllAlertFormats(t *testing.T) {
	config.UseDefaults()

	cases := map[string]string{
		"Millenia_Credit":  milleniaAlert,
		"ICICI_AMAZON_PAY": iciciAlert,
		"YES_BANK_ACE":     yesAlert,
	}
	for bank, body := range cases {
		txs, conflicts, err := Extract([]string{body}, bank)
		require.NoError(t, err, bank)
		assert.Empty(t, conflicts, bank)
		if assert.Len(t, txs, 1, bank) {
			assert.True(t, txs[0].Amount.IsPositive(), bank)
		}
	}
}

func TestExtract_UnmatchedBodiesAreConflicts(t *testing.T) {
	config.UseDefaults()

	txs, conflicts, err := Extract([]string{hdfcUPI, "Your OTP is 123456", hdfcUPI}, "HDFC_DEBIT")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, []string{"Your OTP is 123456"}, conflicts)
	// the same alert twice yields the same reference
	assert.Equal(t, txs[0].ReferenceID, txs[1].ReferenceID)
}

func TestExtract_UnknownBankIsFatal(t *testing.T) {
	config.UseDefaults()

	txs, conflicts, err := Extract([]string{hdfcUPI}, "BOI_DEBIT")
	assert.ErrorIs(t, err, ErrUnknownBank)
	assert.Nil(t, txs)
	assert.Nil(t, conflicts)
}

func TestSearch(t *testing.T) {
	config.UseDefaults()

	q, err := Search("ICICI_AMAZON_PAY")
	require.NoError(t, err)
	assert.Contains(t, q, "credit_cards@icicibank.com")
}
