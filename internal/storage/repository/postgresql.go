// Package repository реализует хранилище анкет участников на основе
// PostgreSQL. Предоставляет upsert по идентификатору пользователя,
// выборки по идентификатору и username, подсчёт приглашённых по фильтру
// и полное сканирование для месячного отчёта.
package repository

import (
	"context"
	"errors"
	"fmt"

	"database/sql"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrMemberNotFound возвращается, когда анкета с указанным идентификатором
// или username отсутствует в хранилище.
var ErrMemberNotFound = errors.New("member not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с анкетами участников.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'members'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table members missing or query error: %w", err)
	}
	return nil
}
