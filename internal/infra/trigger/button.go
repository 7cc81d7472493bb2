package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Button waits for a press on a GPIO pin wired active-low with a
// pull-up (the voice bonnet button on GPIO17).
type Button struct {
	pin      gpio.PinIn
	pinName  string
	debounce time.Duration
	logger   *slog.Logger
}

func NewButton(pinName string, debounce time.Duration, logger *slog.Logger) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing gpio host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin not found: %s", pinName)
	}

	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("configuring pin %s: %w", pinName, err)
	}

	logger.Info("button ready", "pin", pinName, "debounce", debounce)

	return &Button{
		pin:      pin,
		pinName:  pinName,
		debounce: debounce,
		logger:   logger,
	}, nil
}

func (b *Button) Name() string {
	return "button:" + b.pinName
}

// Wait blocks until the button is pressed. Edge waits are bounded so
// context cancellation is noticed within a second.
func (b *Button) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !b.pin.WaitForEdge(time.Second) {
			continue
		}

		// Debounce: the level must still be low after the bounce
		// window or it was noise.
		time.Sleep(b.debounce)
		if b.pin.Read() == gpio.Low {
			b.logger.Debug("button pressed", "pin", b.pinName)
			return nil
		}
	}
}

func (b *Button) Close() error {
	return b.pin.Halt()
}
