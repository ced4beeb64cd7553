package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

// Secret returns the client-side representation of a password (hex SHA-256).
func Secret(pwd string) string {
	return account.Digest(pwd)
}

func CreateAccount(t *testing.T, repo account.Repository, uname, pwd, email, sdo, school string) account.Account {
	t.Helper()

	acc := account.Account{
		Username:   uname,
		Email:      email,
		SDO:        sdo,
		SchoolName: school,
		CreatedAt:  time.Now().UTC(),
	}
	if pwd != "" {
		if err := acc.SetSecret(Secret(pwd)); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

func CreateOverride(t *testing.T, repo override.Repository, office, division, period string, idx int, status string) override.Override {
	t.Helper()

	o, err := repo.UpsertOverride(context.Background(), override.Override{
		Office:      office,
		Division:    division,
		Period:      period,
		TargetIndex: idx,
		Status:      status,
		UpdatedBy:   "tester",
		UpdatedAt:   time.Now().UTC(),
	}, nil)
	if err != nil {
		t.Fatalf("CreateOverride() failed: %v", err)
	}
	return o
}

// FeedCSV joins rows of cells into feed text, quoting cells holding a comma, a quote or a newline.
func FeedCSV(rows ...[]string) string {
	var sb strings.Builder
	for _, row := range rows {
		for i, c := range row {
			if i > 0 {
				sb.WriteByte(',')
			}
			if strings.ContainsAny(c, ",\"\n") {
				c = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
			}
			sb.WriteString(c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
