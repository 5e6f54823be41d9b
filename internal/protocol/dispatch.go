package protocol

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// Receiver is anything that accepts editor messages, normally a game.
type Receiver interface {
	HandleMessage(Message) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(Message) error

// HandleMessage calls f(m).
func (f ReceiverFunc) HandleMessage(m Message) error { return f(m) }

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Dispatch decodes raw and delivers it to r. Malformed messages and
// messages r does not handle are logged at warn level and skipped; the
// error is still returned for callers that care.
func Dispatch(r Receiver, raw []byte, logger *log.Logger) error {
	if logger == nil {
		logger = Discard()
	}
	m, err := Decode(raw)
	if err != nil {
		logger.Warn("dropping message", "error", err, "bytes", len(raw))
		return err
	}
	return Deliver(r, m, logger)
}

// Deliver validates an in-process message and hands it to r.
func Deliver(r Receiver, m Message, logger *log.Logger) error {
	if logger == nil {
		logger = Discard()
	}
	if err := m.Validate(); err != nil {
		logger.Warn("dropping message", "type", m.Type, "error", err)
		return err
	}

	err := r.HandleMessage(m)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnknownKey):
		logger.Warn("unknown parameter ignored", "key", m.Key)
	case errors.Is(err, ErrUnknownAsset):
		logger.Warn("unknown asset type ignored", "assetType", m.AssetType)
	default:
		logger.Warn("message rejected", "type", m.Type, "error", err)
	}
	return err
}
