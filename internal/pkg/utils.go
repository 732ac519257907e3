package utils

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Text returns the trimmed string value of a nullable column, or "".
func Text(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return strings.TrimSpace(t.String)
}

// Int8 returns the value of a nullable bigint column, or 0.
func Int8(i pgtype.Int8) int64 {
	if !i.Valid {
		return 0
	}
	return i.Int64
}

// NullInt8 is the inverse of Int8: zero is stored as NULL.
func NullInt8(v int64) pgtype.Int8 {
	return pgtype.Int8{Int64: v, Valid: v != 0}
}

// Time returns a pointer to the value of a nullable timestamptz column.
func Time(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
