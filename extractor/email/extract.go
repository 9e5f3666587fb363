// Package email pulls transactions out of bank alert mails using the
// named-capture patterns configured under email.<BANK>.
package email

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidishraj/akkountant/extractor/common"
)

var ErrUnknownBank = errors.New("no email pattern configured for bank")

// Capture groups every alert pattern must define.
const (
	groupAmount   = "amount_spent"
	groupMerchant = "merchant"
	groupDate     = "transaction_date"
)

type alertConfig struct {
	Pattern *regexp.Regexp
	Search  string
}

func loadConfig(bank string) (alertConfig, error) {
	raw := viper.GetString("email." + bank + ".pattern")
	if raw == "" {
		return alertConfig{}, fmt.Errorf("%w: %q", ErrUnknownBank, bank)
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		return alertConfig{}, fmt.Errorf("invalid email pattern for %s: %w", bank, err)
	}
	for _, g := range []string{groupAmount, groupMerchant, groupDate} {
		if re.SubexpIndex(g) < 0 {
			return alertConfig{}, fmt.Errorf("email pattern for %s lacks group %q", bank, g)
		}
	}
	return alertConfig{Pattern: re, Search: viper.GetString("email." + bank + ".search")}, nil
}

// Search returns the mailbox query that finds the bank's alerts.
func Search(bank string) (string, error) {
	cfg, err := loadConfig(bank)
	if err != nil {
		return "", err
	}
	return cfg.Search, nil
}

// Extract matches each body against the bank's alert pattern. Bodies that
// do not match, or whose fields do not parse, come back as conflicts. An
// unknown bank fails the whole batch.
func Extract(bodies []string, bank string) ([]common.NormalizedTransaction, []string, error) {
	cfg, err := loadConfig(bank)
	if err != nil {
		return nil, nil, err
	}

	transactions := []common.NormalizedTransaction{}
	conflicts := []string{}
	for _, body := range bodies {
		tx, err := extractOne(cfg.Pattern, body)
		if err != nil {
			log.WithField("bank", bank).Errorf("no match found for %q: %v", body, err)
			conflicts = append(conflicts, body)
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, conflicts, nil
}

func extractOne(re *regexp.Regexp, body string) (common.NormalizedTransaction, error) {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return common.NormalizedTransaction{}, errors.New("pattern did not match")
	}
	date, err := common.NormalizeDate(strings.TrimSpace(m[re.SubexpIndex(groupDate)]), "")
	if err != nil {
		return common.NormalizedTransaction{}, err
	}
	amount, err := common.ParseAmount(m[re.SubexpIndex(groupAmount)], "")
	if err != nil {
		return common.NormalizedTransaction{}, err
	}
	return common.NewTransaction(date, m[re.SubexpIndex(groupMerchant)], amount), nil
}
