package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMember(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("u1", "g1").WillReturnRows(rows)

	member, err := repo.IsMember(context.Background(), "u1", "g1")
	require.NoError(t, err)
	assert.True(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsMemberFalse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(false)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("u1", "g2").WillReturnRows(rows)

	member, err := repo.IsMember(context.Background(), "u1", "g2")
	require.NoError(t, err)
	assert.False(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}
