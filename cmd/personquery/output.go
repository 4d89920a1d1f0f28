package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/elfotec/personstore-go/personstore"
)

const dateLayout = "2006-01-02"

type pageOutput struct {
	personstore.Page
	TotalPages       int  `json:"totalPages"`
	NumberOfElements int  `json:"numberOfElements"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
}

func newPageOutput(page personstore.Page) pageOutput {
	return pageOutput{
		Page:             page,
		TotalPages:       page.TotalPages(),
		NumberOfElements: page.NumberOfElements(),
		First:            page.IsFirst(),
		Last:             page.IsLast(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func writePageTable(w io.Writer, page personstore.Page) error {
	if err := writePersonsTable(w, page.Persons); err != nil {
		return err
	}

	_, err := fmt.Fprintf(
		w,
		"page %d of %d, %d active persons\n",
		page.PageNumber+1,
		max(page.TotalPages(), 1),
		page.TotalActive,
	)

	return err
}

func writePersonsTable(w io.Writer, persons []personstore.Person) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDOCUMENT\tREGISTERED")
	for _, person := range persons {
		fmt.Fprintf(
			tw,
			"%d\t%s\t%s\t%s\t%s\n",
			person.ID,
			person.Name,
			person.Type,
			document(person),
			formatDate(person.RegisteredAt),
		)
	}

	return tw.Flush()
}

// document prefers the formatted CPF of individuals.
func document(person personstore.Person) string {
	if person.CPF != "" {
		return person.FormattedCPF()
	}

	return person.Document()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format(dateLayout)
}
