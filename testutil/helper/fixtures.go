package helper

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration

	"github.com/elfotec/personstore-go/personstore"
)

// FixtureDeletedAt is the fixed soft-delete time of deleted fixtures.
var FixtureDeletedAt = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// FixtureIndividual creates an active individual person (PF) without dates.
func FixtureIndividual(id personstore.PersonID, name string, cpf string) personstore.Person {
	return personstore.Person{
		ID:         id,
		Name:       name,
		CPF:        cpf,
		Type:       personstore.PersonTypeIndividual,
		MotherName: "Maria da Silva",
	}
}

// FixtureCompany creates an active company person (PJ) without dates.
func FixtureCompany(id personstore.PersonID, name string, cnpj string) personstore.Person {
	return personstore.Person{
		ID:   id,
		Name: name,
		CNPJ: cnpj,
		Type: personstore.PersonTypeCompany,
	}
}

// SoftDeleted returns a copy of person that is marked as deleted at FixtureDeletedAt.
func SoftDeleted(person personstore.Person) personstore.Person {
	deletedAt := FixtureDeletedAt
	person.DeletedAt = &deletedAt

	return person
}

// ScenarioPersons returns ids 1, 2 and 3 as active persons and id 4 as a soft-deleted one.
func ScenarioPersons() []personstore.Person {
	return []personstore.Person{
		FixtureIndividual(1, "Ana Souza", "12345678901"),
		FixtureIndividual(2, "Bruno Lima", "98765432100"),
		FixtureCompany(3, "Padaria Central Ltda", "12345678000195"),
		SoftDeleted(FixtureIndividual(4, "Carlos Pereira", "11122233344")),
	}
}

// GivenMixedPersons returns count persons with ids 1..count where every id divisible by deletedEvery
// is soft-deleted. deletedEvery < 1 means no person is deleted.
func GivenMixedPersons(count int, deletedEvery int) (all []personstore.Person, active []personstore.PersonID) {
	all = make([]personstore.Person, 0, count)
	active = make([]personstore.PersonID, 0, count)

	for i := 1; i <= count; i++ {
		id := personstore.PersonID(i)
		person := FixtureIndividual(id, "Person", "00000000000")

		if deletedEvery > 0 && i%deletedEvery == 0 {
			person = SoftDeleted(person)
		} else {
			active = append(active, id)
		}

		all = append(all, person)
	}

	return all, active
}

// BuildInsertPersonsQuery builds a prepared multi-row insert of persons for the given goqu dialect.
// Empty strings and zero times are stored as NULL.
func BuildInsertPersonsQuery(dialect string, table string, persons ...personstore.Person) (string, []any, error) {
	rows := make([]any, 0, len(persons))

	for _, person := range persons {
		rows = append(rows, goqu.Record{
			"id":            person.ID,
			"name":          nullableString(person.Name),
			"cpf":           nullableString(person.CPF),
			"cnpj":          nullableString(person.CNPJ),
			"person_type":   nullableString(string(person.Type)),
			"mother_name":   nullableString(person.MotherName),
			"registered_at": nullableTime(person.RegisteredAt),
			"birth_date":    nullableTime(person.BirthDate),
			"deleted_at":    nullableTimePointer(person.DeletedAt),
		})
	}

	return goqu.Dialect(dialect).
		Insert(table).
		Rows(rows...).
		Prepared(true).
		ToSQL()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}

	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}

	return value
}

func nullableTimePointer(value *time.Time) any {
	if value == nil {
		return nil
	}

	return *value
}
