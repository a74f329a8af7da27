package models

import "github.com/lib/pq"

// Teacher is a row of the teacher identity pool together with its stored
// credential fields.
type Teacher struct {
	ID         string         `db:"id" json:"id"`
	Username   string         `db:"username" json:"username"`
	FullName   string         `db:"full_name" json:"full_name"`
	Department *string        `db:"department" json:"department,omitempty"`
	Subjects   pq.StringArray `db:"subjects" json:"subjects"`
	Credentials
}
