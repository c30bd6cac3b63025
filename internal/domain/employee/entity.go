package employee

import (
	"strings"
	"time"
)

type Employee struct {
	ID               string
	Code             string
	FirstName        string
	MiddleName       *string
	LastName         string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins the display name parts, skipping blanks.
func (e Employee) FullName() string {
	parts := []string{e.FirstName}
	if e.MiddleName != nil {
		parts = append(parts, *e.MiddleName)
	}
	parts = append(parts, e.LastName)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
	EmploymentStatusResigned EmploymentStatus = "resigned"
)

var EmploymentStatusValues = []string{
	string(EmploymentStatusActive),
	string(EmploymentStatusInactive),
	string(EmploymentStatusResigned),
}
