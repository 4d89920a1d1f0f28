package personstore

import (
	"context"
	"strings"
	"time"
)

// PersonType distinguishes individuals from legal entities.
type PersonType string

const (
	// PersonTypeIndividual marks a natural person, identified by a CPF.
	PersonTypeIndividual PersonType = "PF"

	// PersonTypeCompany marks a legal entity, identified by a CNPJ.
	PersonTypeCompany PersonType = "PJ"
)

const (
	cpfDigits       = 11
	missingDocument = "N/A"
)

// Person is a DTO (data transfer object) holding one row of the person table.
//
// Nullable text columns are mapped to empty strings and nullable dates to zero times,
// except DeletedAt which stays a pointer: nil means the record is active.
type Person struct {
	ID           PersonID   `json:"id"`
	Name         string     `json:"name,omitempty"`
	CPF          string     `json:"cpf,omitempty"`
	CNPJ         string     `json:"cnpj,omitempty"`
	Type         PersonType `json:"personType,omitempty"`
	MotherName   string     `json:"motherName,omitempty"`
	RegisteredAt time.Time  `json:"registeredAt"`
	BirthDate    time.Time  `json:"birthDate"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// IsActive reports whether the Person is not soft-deleted.
func (p Person) IsActive() bool {
	return p.DeletedAt == nil
}

// FormattedCPF returns the CPF as xxx.xxx.xxx-xx.
// Values that do not consist of exactly 11 digits (ignoring punctuation) are returned unchanged.
func (p Person) FormattedCPF() string {
	if p.CPF == "" {
		return ""
	}

	digits := onlyDigits(p.CPF)
	if len(digits) != cpfDigits {
		return p.CPF
	}

	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// Document returns the CPF if present, otherwise the CNPJ, otherwise "N/A".
func (p Person) Document() string {
	switch {
	case p.CPF != "":
		return p.CPF
	case p.CNPJ != "":
		return p.CNPJ
	default:
		return missingDocument
	}
}

func onlyDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// ActiveQueries is the read contract over active (not soft-deleted) Person records.
//
// Implementations hold no mutable state, so concurrent calls are independent.
// Each call issues its reads with the given context; caller deadlines are passed through unmodified
// and nothing is retried.
type ActiveQueries interface {
	// ListActive returns the requested zero-based page of active persons ordered by id ascending.
	// It fails with ErrInvalidArgument for pageNumber < 0 or pageSize < 1
	// and with ErrStorageUnavailable if the storage can not be queried.
	ListActive(ctx context.Context, pageNumber, pageSize int) (Page, error)

	// GetActiveByID returns the active Person with the given id and found=true.
	// found=false means no active record exists: the id never existed or the record is soft-deleted.
	// Every id value is a valid lookup key. It fails with ErrStorageUnavailable if the storage can not be queried.
	GetActiveByID(ctx context.Context, id PersonID) (Person, bool, error)
}
