package hardware

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Plausible range for a room or pipe probe, °C.
const (
	minPlausibleC = 0.0
	maxPlausibleC = 50.0
)

// DS18B20 reads a 1-wire probe through the w1_therm sysfs interface.
type DS18B20 struct {
	id   string
	path string
}

// NewDS18B20 returns a sensor reading <w1Path>/<id>/w1_slave.
func NewDS18B20(w1Path, id string) *DS18B20 {
	return &DS18B20{id: id, path: filepath.Join(w1Path, id, "w1_slave")}
}

func (s *DS18B20) ID() string { return s.id }

func (s *DS18B20) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return 0, &SensorError{ID: s.id, Err: err}
	}
	defer f.Close()

	v, err := parseW1Slave(f)
	if err != nil {
		return 0, &SensorError{ID: s.id, Err: err}
	}
	return v, nil
}

// parseW1Slave decodes the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(r io.Reader) (float64, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		return 0, errors.New("no first line")
	}
	if !strings.HasSuffix(strings.TrimSpace(sc.Text()), "YES") {
		return 0, errors.New("CRC check failed")
	}

	if !sc.Scan() {
		return 0, errors.New("no second line")
	}
	line := strings.TrimSpace(sc.Text())
	pos := strings.Index(line, "t=")
	if pos < 0 {
		return 0, errors.New("temperature data not found")
	}
	milli, err := strconv.Atoi(line[pos+2:])
	if err != nil {
		return 0, fmt.Errorf("parse temperature: %w", err)
	}

	c := float64(milli) / 1000.0
	if c < minPlausibleC || c > maxPlausibleC {
		return 0, fmt.Errorf("temperature out of range: %.1f°C", c)
	}
	return c, nil
}
