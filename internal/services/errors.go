package services

import (
	"database/sql"
	"errors"

	"keep-backend-go/internal/policy"
	"keep-backend-go/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
)

type ServiceError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e ServiceError) Error() string {
	return e.Message
}

// ErrAccessDenied is returned for records that are missing or not visible to
// the principal. The two cases are indistinguishable to callers.
var ErrAccessDenied = ServiceError{Status: 403, Message: "Access denied"}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: 409, Message: msg}
}

func ErrValidation(fields map[string]string) error {
	return ServiceError{Status: 400, Message: "Validation failed", Fields: fields}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// Classify maps an error from the policy, storage or database layer onto a
// ServiceError. Errors it does not recognise are returned unchanged and end up
// as 500s.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se ServiceError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, policy.ErrDenied), errors.Is(err, sql.ErrNoRows):
		return ErrAccessDenied
	case errors.Is(err, storage.ErrForeignPrefix):
		return ErrAccessDenied
	case errors.Is(err, storage.ErrTooLarge):
		return ServiceError{Status: 413, Message: "File is too large"}
	case errors.Is(err, storage.ErrMimeNotAllowed):
		return ServiceError{Status: 415, Message: "File type not allowed"}
	case errors.Is(err, storage.ErrQuota):
		return ServiceError{Status: 507, Message: "Storage is full"}
	case errors.Is(err, storage.ErrEmpty):
		return ErrBadRequest("File is empty")
	case errors.Is(err, storage.ErrNotFound):
		return ErrAccessDenied
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict("Already exists")
		case pgForeignKeyViolation:
			return ErrConflict("Referenced record does not exist or is still in use")
		case pgNotNullViolation, pgCheckViolation, pgInvalidText:
			return ErrBadRequest("Invalid value")
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
