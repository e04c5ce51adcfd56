package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.Setting{Name: "instance_id", Value: []byte("abc")}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			settingName:   "instance_id",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "missing setting",
			dbParam:       db,
			settingName:   "nope",
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "existing setting",
			dbParam:       db,
			settingName:   "instance_id",
			expectedValue: []byte("abc"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setting, err := Get(tc.dbParam, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, setting.Value)
		})
	}
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)

	created, err := Set(db, "catalog_version", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), created.Value)

	updated, err := Set(db, "catalog_version", []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), updated.Value)
	assert.Equal(t, created.ID, updated.ID, "upsert must not create a second row")

	all, err := GetAll(db)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteByName(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "instance_id", []byte("abc"))
	require.NoError(t, err)

	require.NoError(t, DeleteByName(db, "instance_id"))
	require.ErrorIs(t, DeleteByName(db, "instance_id"), ErrSettingNotFound)

	_, err = Get(db, "instance_id")
	require.ErrorIs(t, err, ErrSettingNotFound)
}
