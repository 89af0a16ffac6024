package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/EduPay/internal/pkg/env"
)

func TestDSN(t *testing.T) {
	env.Env = map[string]string{
		"DB_USER":     "edupay",
		"DB_PASSWORD": "secret",
		"DB_HOST":     "db",
		"DB_PORT":     "3307",
		"DB_NAME":     "ledger",
	}
	t.Cleanup(func() { env.Env = nil })

	assert.Equal(t, "edupay:secret@tcp(db:3307)/ledger?charset=utf8mb4&parseTime=True&loc=UTC", DSN())
}
