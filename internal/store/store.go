// Package store persists the ledger tables: account types, journals,
// accounts, transactions and splits. Each repository wraps a db.Connection
// and owns the SQL for its tables; mutations that touch multiple rows run
// inside a single database transaction.
package store

import "database/sql"

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// orEmpty collapses a nullable text column to "" for fields the domain
// model treats as plain strings.
func orEmpty(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
