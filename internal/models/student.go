package models

// Student is a row of the student identity pool together with its stored
// credential fields.
type Student struct {
	ID         string  `db:"id" json:"id"`
	Username   string  `db:"username" json:"username"`
	FullName   string  `db:"full_name" json:"full_name"`
	ClassName  *string `db:"class_name" json:"class_name,omitempty"`
	Section    *string `db:"section" json:"section,omitempty"`
	RollNumber *string `db:"roll_number" json:"roll_number,omitempty"`
	Credentials
}
