package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestBorrowerRow_MapsEveryJoinedColumn(t *testing.T) {
	s, err := schema.Parse(&borrowerRow{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, column := range []string{"loan_id", "id", "office_id", "full_name", "phone", "email", "address", "created_at"} {
		field := s.LookUpField(column)
		require.NotNil(t, field, "column %s is not mapped", column)
		require.Equal(t, column, field.DBName)
	}
}

func TestBorrowerRow_CustomerCarriesContactFields(t *testing.T) {
	created := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)
	row := borrowerRow{
		LoanID:    9,
		ID:        3,
		OfficeID:  7,
		FullName:  "Amina Wanjiku",
		Phone:     "+254700000001",
		Email:     "amina@example.com",
		Address:   "Nairobi",
		CreatedAt: created,
	}

	customer := row.customer().toDomain()
	require.Equal(t, int64(3), customer.ID)
	require.Equal(t, int64(7), customer.OfficeID)
	require.Equal(t, "Amina Wanjiku", customer.FullName)
	require.Equal(t, "+254700000001", customer.Phone)
	require.Equal(t, "amina@example.com", customer.Email)
	require.Equal(t, "Nairobi", customer.Address)
	require.Equal(t, created, customer.CreatedAt)
}
