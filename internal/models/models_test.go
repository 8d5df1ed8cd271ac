package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.sqlite")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestBaseModel_GeneratesULID(t *testing.T) {
	db := openTestDB(t)

	user := &User{Email: "a@ship.example", Username: "a", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	assert.Len(t, user.ID, 26)

	var found User
	require.NoError(t, FindByID(db, user.ID, &found))
	assert.Equal(t, "a@ship.example", found.Email)
}

func TestUser_UniqueEmail(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&User{Email: "a@ship.example", Username: "a", PasswordHash: "x"}).Error)
	assert.Error(t, db.Create(&User{Email: "a@ship.example", Username: "b", PasswordHash: "x"}).Error)
}

func TestRefreshToken_Active(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour)}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(-time.Second)}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}).Active(now))
}

func TestPriceProblem(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{0, ""},
		{0.5, ""},
		{14.5, ""},
		{1.25, ""},
		{99999999.99, ""},
		{1.239, "Ensure that there are no more than 2 decimal places."},
		{12345678901234.5, "Ensure that there are no more than 10 digits in total."},
		{123456789.5, "Ensure that there are no more than 8 digits before the decimal point."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceProblem(tt.price), "price %v", tt.price)
	}
}
