package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRepositoryFindTeacher(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery("FROM teachers WHERE username = \\$1").
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name", "department", "subjects", "password", "legacy_password", "temp_password"}).
			AddRow("t1", "jdoe", "Jane Doe", "Science", "{Physics,Chemistry}", "secret", nil, nil))

	teacher, err := repo.FindTeacherByUsername(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", teacher.FullName)
	assert.Equal(t, []string{"Physics", "Chemistry"}, []string(teacher.Subjects))
	require.NotNil(t, teacher.Password)
	assert.Nil(t, teacher.LegacyPassword)
}

func TestIdentityRepositoryFindStudentMissing(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery("FROM students WHERE username = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindStudentByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
