/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqldb serves relational databases through database/sql. It opens
// sqlite3, MySQL and PostgreSQL (pgx) connections from a config group, keeps
// one prepared statement per distinct SQL text, lists table columns and maps
// driver "unknown column" errors to errors.InvalidFieldError.
package sqldb
