package utils

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/Luismorlan/instag/model"
	Logger "github.com/Luismorlan/instag/utils/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GormTransaction is the callback passed to db.Transaction.
type GormTransaction func(tx *gorm.DB) error

// GetDBConnection connects to DB_NAME with the DB_USER account.
func GetDBConnection() (*gorm.DB, error) {
	return connect(os.Getenv("DB_NAME"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"))
}

// adminConnection connects to DEFAULT_DB_NAME, the database used to create
// and drop the others.
func adminConnection() (*gorm.DB, error) {
	return connect(os.Getenv("DEFAULT_DB_NAME"), os.Getenv("DEFAULT_DB_USER"), os.Getenv("DEFAULT_DB_PASS"))
}

func connect(dbName, user, password string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), user, password, dbName, os.Getenv("DB_PORT"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to connect to database "+dbName)
	}
	return db, nil
}

// DatabaseSetupAndMigration creates or updates the tables of imported posts,
// their media and tags.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(&model.Post{}, &model.Media{}, &model.Tag{})
}

// IsDatabaseConfigured reports whether DB_HOST is set in env.
func IsDatabaseConfigured() bool {
	return os.Getenv("DB_HOST") != ""
}

func IsDatabaseExist(dbName string) (bool, error) {
	db, err := adminConnection()
	if err != nil {
		return false, err
	}
	defer closeConnection(db)

	var exists bool
	res := db.Raw("SELECT TRUE FROM pg_catalog.pg_database WHERE lower(datname) = lower(?) LIMIT 1", dbName).Scan(&exists)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "fail to look up database "+dbName)
	}
	return exists, nil
}

// CreateTempDB creates and migrates a throwaway database for t, dropped when
// the test finishes. Databases left behind by a killed test run carry the
// TestDBPrefix and can be dropped by hand.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	admin, err := adminConnection()
	if err != nil {
		t.Fatal(err)
	}
	dbName := TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
	if err := admin.Exec("CREATE DATABASE " + dbName).Error; err != nil {
		closeConnection(admin)
		t.Fatal(errors.Wrap(err, "fail to create temp database "+dbName))
	}

	db, err := connect(dbName, os.Getenv("DB_USER"), os.Getenv("DB_PASS"))
	if err != nil {
		dropTempDB(admin, dbName)
		t.Fatal(err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		closeConnection(db)
		dropTempDB(admin, dbName)
		t.Fatal(errors.Wrap(err, "fail to migrate temp database "+dbName))
	}

	t.Cleanup(func() {
		// postgres refuses to drop a database with open connections
		closeConnection(db)
		dropTempDB(admin, dbName)
	})
	return db, dbName
}

// dropTempDB drops dbName through admin and closes admin. Only databases
// with TestDBPrefix are ever dropped.
func dropTempDB(admin *gorm.DB, dbName string) {
	defer closeConnection(admin)
	if !strings.HasPrefix(dbName, TestDBPrefix) {
		Logger.Log.Errorln("refuse to drop non-test database", dbName)
		return
	}
	if err := admin.Exec("DROP DATABASE IF EXISTS " + dbName).Error; err != nil {
		Logger.Log.Errorln("fail to drop temp database", dbName, err)
	}
}

func closeConnection(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		Logger.Log.Warnln("fail to close database connection:", err)
	}
}
