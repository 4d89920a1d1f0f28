package sqlengine

import (
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/elfotec/personstore-go/personstore"
)

// personColumns lists the selected columns in the order personRow.destinations expects them.
func personColumns() []any {
	return []any{
		goqu.C(colID),
		goqu.C(colName),
		goqu.C(colCPF),
		goqu.C(colCNPJ),
		goqu.C(colPersonType),
		goqu.C(colMotherName),
		goqu.C(colRegisteredAt),
		goqu.C(colBirthDate),
		goqu.C(colDeletedAt),
	}
}

func isActive() goqu.Expression {
	return goqu.C(colDeletedAt).IsNull()
}

// buildCountActiveQuery builds the aggregate query counting all active persons.
func (ps *PersonStore) buildCountActiveQuery() (string, error) {
	sqlQuery, _, toSQLErr := ps.dialect.
		From(ps.personTableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(isActive()).
		ToSQL()

	if toSQLErr != nil {
		return "", errors.Join(personstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildListActiveQuery builds the query for one page of active persons in ascending id order.
func (ps *PersonStore) buildListActiveQuery(pageRequest personstore.PageRequest) (string, error) {
	sqlQuery, _, toSQLErr := ps.dialect.
		From(ps.personTableName).
		Select(personColumns()...).
		Where(isActive()).
		Order(goqu.C(colID).Asc()).
		Limit(uint(pageRequest.Size)).
		Offset(uint(pageRequest.Offset())).
		ToSQL()

	if toSQLErr != nil {
		return "", errors.Join(personstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildGetActiveByIDQuery builds the query for at most one active person with the given id.
func (ps *PersonStore) buildGetActiveByIDQuery(id personstore.PersonID) (string, error) {
	sqlQuery, _, toSQLErr := ps.dialect.
		From(ps.personTableName).
		Select(personColumns()...).
		Where(
			goqu.C(colID).Eq(id),
			isActive(),
		).
		Limit(1).
		ToSQL()

	if toSQLErr != nil {
		return "", errors.Join(personstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// personRow is the scan target for one row of the person table.
// All columns except id are nullable.
type personRow struct {
	id           int64
	name         sql.NullString
	cpf          sql.NullString
	cnpj         sql.NullString
	personType   sql.NullString
	motherName   sql.NullString
	registeredAt sql.NullTime
	birthDate    sql.NullTime
	deletedAt    sql.NullTime
}

func (r *personRow) destinations() []any {
	return []any{
		&r.id,
		&r.name,
		&r.cpf,
		&r.cnpj,
		&r.personType,
		&r.motherName,
		&r.registeredAt,
		&r.birthDate,
		&r.deletedAt,
	}
}

func (r *personRow) toPerson() personstore.Person {
	person := personstore.Person{
		ID:           r.id,
		Name:         r.name.String,
		CPF:          r.cpf.String,
		CNPJ:         r.cnpj.String,
		Type:         personstore.PersonType(r.personType.String),
		MotherName:   r.motherName.String,
		RegisteredAt: r.registeredAt.Time,
		BirthDate:    r.birthDate.Time,
	}

	if r.deletedAt.Valid {
		deletedAt := r.deletedAt.Time
		person.DeletedAt = &deletedAt
	}

	return person
}
