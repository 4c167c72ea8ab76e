/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldb

import (
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/suparena/modelstore/errors"
)

const (
	mysqlUnknownColumn    = 1054
	postgresUndefinedCol  = "42703"
	sqliteNoSuchColumnMsg = "no such column"
)

var columnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`no such column: ([^\s]+)`),
	regexp.MustCompile(`Unknown column '([^']+)'`),
	regexp.MustCompile(`column "([^"]+)" does not exist`),
}

// mapError turns a driver "column not found" error into an InvalidFieldError
// and anything else into a StorageError carrying query.
func mapError(query string, err error) error {
	if err == nil {
		return nil
	}
	if isUnknownColumn(err) {
		return errors.NewInvalidFieldError("", columnName(err.Error()), err)
	}
	return errors.NewStorageError(query, err)
}

func isUnknownColumn(err error) bool {
	var me *mysql.MySQLError
	if stderrors.As(err, &me) {
		return me.Number == mysqlUnknownColumn
	}
	var pe *pgconn.PgError
	if stderrors.As(err, &pe) {
		return pe.Code == postgresUndefinedCol
	}
	var se sqlite3.Error
	if stderrors.As(err, &se) {
		return strings.Contains(se.Error(), sqliteNoSuchColumnMsg)
	}
	return strings.Contains(err.Error(), sqliteNoSuchColumnMsg)
}

func columnName(msg string) string {
	for _, re := range columnPatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			name := m[1]
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				name = name[i+1:]
			}
			return strings.Trim(name, "`\"")
		}
	}
	return ""
}
