package personstore

import (
	"errors"
	"math"
)

// PageRequest is a validated, zero-based, offset pagination request.
//
// It should only be constructed with NewPageRequest.
type PageRequest struct {
	Number int
	Size   int
}

// NewPageRequest is a factory method for PageRequest.
//
// It returns an error wrapping ErrInvalidArgument if number is negative, size is smaller than 1,
// or the resulting offset does not fit into an int.
func NewPageRequest(number int, size int) (PageRequest, error) {
	if number < 0 {
		return PageRequest{}, errors.Join(ErrInvalidArgument, ErrNegativePageNumber)
	}

	if size < 1 {
		return PageRequest{}, errors.Join(ErrInvalidArgument, ErrPageSizeTooSmall)
	}

	if number > math.MaxInt/size {
		return PageRequest{}, errors.Join(ErrInvalidArgument, ErrPageOffsetOverflow)
	}

	return PageRequest{Number: number, Size: size}, nil
}

// Offset is the number of active records preceding this page.
func (r PageRequest) Offset() int {
	return r.Number * r.Size
}

// Page is one slice of the active persons together with the metadata needed to navigate the rest.
type Page struct {
	Persons     []Person `json:"content"`
	PageNumber  int      `json:"number"`
	PageSize    int      `json:"size"`
	TotalActive int64    `json:"totalElements"`
}

// NumberOfElements is the number of persons on this page.
func (p Page) NumberOfElements() int {
	return len(p.Persons)
}

// TotalPages is the number of pages needed to traverse all active persons with this page size.
func (p Page) TotalPages() int {
	if p.PageSize < 1 || p.TotalActive <= 0 {
		return 0
	}

	size := int64(p.PageSize)

	return int((p.TotalActive + size - 1) / size)
}

// IsFirst reports whether this is the first page.
func (p Page) IsFirst() bool {
	return p.PageNumber == 0
}

// HasNext reports whether a page after this one contains active persons.
func (p Page) HasNext() bool {
	return p.PageNumber+1 < p.TotalPages()
}

// IsLast reports whether no page after this one contains active persons.
func (p Page) IsLast() bool {
	return !p.HasNext()
}
