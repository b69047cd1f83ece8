package db

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// SqlDB durable validation result ledger
type SqlDB struct {
	db *sqlx.DB
}

// NewSqlDB returns a ledger over an open connection
func NewSqlDB(db *sqlx.DB) *SqlDB {
	return &SqlDB{db}
}

// NewDB opens the mysql connection for the ledger
func NewDB(path string) (*sqlx.DB, error) {
	path = fmt.Sprintf("%s?parseTime=true&loc=Local", path)

	client, err := sqlx.Open("mysql", path)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(); err != nil {
		return nil, err
	}

	return client, nil
}

const (
	// tables
	validationResultTable = "validation_result"

	loadResultInfosLimit = 100
)
