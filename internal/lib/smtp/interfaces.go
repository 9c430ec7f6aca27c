// Package smtp доставляет письма через SMTP-сервер с обязательным STARTTLS.
package smtp

import (
	"context"
	"io"
)

// Session открытая SMTP-сессия, в которой отправляется одно письмо.
type Session interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессии и знает адрес отправителя.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
	Sender() string
}
