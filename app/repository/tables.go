package repository

import (
	"fmt"
	"strconv"
)

// table describes the filterable and unique fields of one ledger table.
type table struct {
	name   string
	fields map[string]string // json name -> column
	bools  map[string]bool   // columns holding booleans
	unique []string          // json names with a unique index
}

// column resolves a filter key given as json name or column name.
func (t table) column(key string) (jsonKey, column string, err error) {
	if col, ok := t.fields[key]; ok {
		return key, col, nil
	}
	for j, col := range t.fields {
		if col == key {
			return j, col, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s cannot be filtered by %q", ErrInvalidFilter, t.name, key)
}

// value converts a filter value to the type stored in column.
func (t table) value(column, raw string) (interface{}, error) {
	if t.bools[column] {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a boolean", ErrInvalidFilter, column)
		}
		return b, nil
	}
	return raw, nil
}

var (
	usersTable = table{
		name:   "users",
		fields: map[string]string{"email": "email", "role": "role"},
		unique: []string{"email"},
	}
	institutionsTable = table{
		name:   "institutions",
		fields: map[string]string{"type": "type", "gender": "gender", "is_visible": "is_visible"},
		bools:  map[string]bool{"is_visible": true},
	}
	plansTable = table{
		name:   "plans",
		fields: map[string]string{"institutionId": "institution_id"},
	}
	applicationsTable = table{
		name: "applications",
		fields: map[string]string{
			"userId":        "user_id",
			"institutionId": "institution_id",
			"planId":        "plan_id",
			"status":        "status",
		},
	}
	installmentPlansTable = table{
		name: "installment_plans",
		fields: map[string]string{
			"userId":        "user_id",
			"institutionId": "institution_id",
			"planId":        "plan_id",
			"applicationId": "application_id",
			"status":        "status",
		},
		unique: []string{"applicationId"},
	}
	paymentsTable = table{
		name: "payments",
		fields: map[string]string{
			"installmentId": "installment_id",
			"payment_type":  "payment_type",
			"status":        "status",
		},
	}
)
