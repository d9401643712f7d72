package hardware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"heating_controller/internal/logger"
)

// SysfsRelay drives a GPIO output through the legacy /sys/class/gpio interface.
type SysfsRelay struct {
	pin  int
	base string
	log  *logger.Logger
}

func NewSysfsRelay(base string, pin int, log *logger.Logger) *SysfsRelay {
	if log == nil {
		log = logger.Nop()
	}
	return &SysfsRelay{pin: pin, base: base, log: log.Named("gpio")}
}

func (r *SysfsRelay) Pin() int { return r.pin }

func (r *SysfsRelay) pinDir() string {
	return filepath.Join(r.base, "gpio"+strconv.Itoa(r.pin))
}

func (r *SysfsRelay) ReadState(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b, err := os.ReadFile(filepath.Join(r.pinDir(), "value"))
	if err != nil {
		return false, &RelayError{Pin: r.pin, Op: "read", Err: err}
	}
	switch strings.TrimSpace(string(b)) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, &RelayError{Pin: r.pin, Op: "read", Err: fmt.Errorf("invalid state value %q", strings.TrimSpace(string(b)))}
	}
}

func (r *SysfsRelay) SetState(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := "0"
	if on {
		v = "1"
	}
	r.log.Debugw("gpio_set", "pin", r.pin, "state", on)
	if err := writeFile(filepath.Join(r.pinDir(), "value"), v); err != nil {
		return &RelayError{Pin: r.pin, Op: "write", Err: err}
	}
	return nil
}

// Setup exports the pin if needed and sets its direction to "out".
func (r *SysfsRelay) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(r.pinDir()); err == nil {
		r.log.Debugw("gpio_already_exported", "pin", r.pin)
	} else if errors.Is(err, os.ErrNotExist) {
		r.log.Infow("gpio_export", "pin", r.pin)
		if err := writeFile(filepath.Join(r.base, "export"), strconv.Itoa(r.pin)); err != nil {
			return &RelayError{Pin: r.pin, Op: "export", Err: err}
		}
	} else {
		return &RelayError{Pin: r.pin, Op: "export", Err: err}
	}

	dirPath := filepath.Join(r.pinDir(), "direction")
	cur, _ := os.ReadFile(dirPath)
	if strings.TrimSpace(string(cur)) == "out" {
		r.log.Debugw("gpio_direction_ok", "pin", r.pin)
		return nil
	}
	r.log.Infow("gpio_set_direction", "pin", r.pin, "direction", "out")
	if err := writeFile(dirPath, "out"); err != nil {
		return &RelayError{Pin: r.pin, Op: "direction", Err: err}
	}
	return nil
}

// writeFile truncates path and writes v.
func writeFile(path, v string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
