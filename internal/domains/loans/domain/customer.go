package domain

import (
	"regexp"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// Customer is a borrower registered at an office.
type Customer struct {
	ID        int64
	OfficeID  int64
	FullName  string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time
}

// NewCustomer trims and validates the registration fields.
func NewCustomer(officeID int64, fullName, phone, email, address string) (*Customer, error) {
	c := &Customer{
		OfficeID: officeID,
		FullName: strings.TrimSpace(fullName),
		Phone:    strings.ReplaceAll(strings.TrimSpace(phone), " ", ""),
		Email:    strings.TrimSpace(email),
		Address:  strings.TrimSpace(address),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) Validate() error {
	if c.OfficeID <= 0 {
		return ErrInvalidOffice
	}
	if c.FullName == "" {
		return ErrEmptyName
	}
	if !phonePattern.MatchString(c.Phone) {
		return ErrInvalidPhone
	}
	return nil
}
