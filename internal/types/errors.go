package types

import "errors"

// Hard failures. Anything that can be reported row by row is a ParseIssue or
// a Finding instead.
var (
	// ErrUnsupportedFormat is returned for file extensions the parser does not read.
	ErrUnsupportedFormat = errors.New("format de fichier non supporté, utilisez un fichier CSV ou XLSX")

	// ErrEmptyFile is returned when the file holds no bytes or no header row.
	ErrEmptyFile = errors.New("le fichier est vide")

	// ErrNotEnoughData is returned when the file has a header but no data rows.
	ErrNotEnoughData = errors.New("le fichier ne contient pas suffisamment de données")

	// ErrUnreadable is returned when the bytes cannot be decoded at all.
	ErrUnreadable = errors.New("le fichier est illisible")

	// ErrInvalidCatalog is returned for an empty or inconsistent field catalog.
	ErrInvalidCatalog = errors.New("invalid field catalog")
)
