package smtp

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"
)

// ErrNoRecipients у письма нет ни одного получателя.
var ErrNoRecipients = errors.New("message has no recipients")

// Message простое текстовое письмо в UTF-8.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
}

// Bytes собирает письмо в формате RFC 5322. Тема кодируется по RFC 2047,
// поэтому кириллица в заголовке не ломает почтовые клиенты.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var b bytes.Buffer
	writeHeader(&b, "From", m.From)
	writeHeader(&b, "To", strings.Join(m.To, ", "))
	writeHeader(&b, "Subject", mime.BEncoding.Encode("UTF-8", m.Subject))
	writeHeader(&b, "Date", date.Format(time.RFC1123Z))
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", `text/plain; charset="UTF-8"`)
	writeHeader(&b, "Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// Deliver передаёт письмо в открытой сессии и завершает её командой QUIT.
// Закрытие сессии при ошибке остаётся за вызывающим.
func Deliver(s Session, m Message) error {
	const op = "smtp.Deliver"

	if len(m.To) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoRecipients)
	}
	if err := s.Mail(m.From); err != nil {
		return fmt.Errorf("%s: MAIL FROM: %w", op, err)
	}
	for _, rcpt := range m.To {
		if err := s.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%s: RCPT TO %s: %w", op, rcpt, err)
		}
	}

	wc, err := s.Data()
	if err != nil {
		return fmt.Errorf("%s: DATA: %w", op, err)
	}
	if _, err = wc.Write(m.Bytes()); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write body: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: end of data: %w", op, err)
	}
	if err = s.Quit(); err != nil {
		return fmt.Errorf("%s: QUIT: %w", op, err)
	}
	return nil
}
