package personstore

import (
	"errors"
)

var ErrInvalidArgument = errors.New("invalid argument")
var ErrStorageUnavailable = errors.New("storage unavailable")

var ErrNegativePageNumber = errors.New("page number must not be negative")
var ErrPageSizeTooSmall = errors.New("page size must be at least 1")
var ErrPageOffsetOverflow = errors.New("page offset overflows")

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableName = errors.New("empty person table name supplied")
var ErrUnsupportedDialect = errors.New("unsupported sql dialect")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")

// PersonID is a type alias for int64, the primary key type of the person table.
type PersonID = int64

