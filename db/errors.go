package db

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyRetries     = errors.New("session changed concurrently too many times, try again")
	ErrInstructorConflict = errors.New("instructor would hold more than one session")
	ErrEmptyWorkbook      = errors.New("excel file does not contain any sheets")
	ErrInvalidWorkbook    = errors.New("file is not a readable xlsx workbook")
)
