// Package storage описывает ошибки слоя хранения, по которым вызывающий код
// выбирает реакцию: «не найдено», «хранилище недоступно» или «транзакция не удалась».
package storage

import "errors"

var (
	// ErrNotFound запись отсутствует.
	ErrNotFound = errors.New("record not found")
	// ErrConnection не удалось получить соединение или блокировку за отведённое время.
	ErrConnection = errors.New("store unavailable")
	// ErrTransaction запрос или фиксация транзакции завершились ошибкой, изменения откачены.
	ErrTransaction = errors.New("store transaction failed")
)
