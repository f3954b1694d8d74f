// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultRoot is where the Linux msr driver exposes its device nodes.
const DefaultRoot = "/dev/cpu"

// ErrNoDevice is returned when the msr device node for a CPU is missing,
// usually because the msr module is not loaded or the CPU is offline.
var ErrNoDevice = errors.New("msr: device not available")

// Device accesses registers through /dev/cpu/N/msr. Device nodes are
// opened on first use and held until Close. A Device is safe for
// concurrent use: the file table is locked, and positional I/O does not
// share a file offset.
type Device struct {
	root   string
	logger *slog.Logger

	mutex sync.Mutex
	files map[int]*os.File
}

// NewDevice returns a Device rooted at root (normally [DefaultRoot]).
// A nil logger discards log output.
func NewDevice(root string, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Device{
		root:   root,
		logger: logger,
		files:  make(map[int]*os.File),
	}
}

// Path returns the device node path for cpu.
func (d *Device) Path(cpu int) string {
	return filepath.Join(d.root, strconv.Itoa(cpu), "msr")
}

// file returns the open device node for cpu, opening it if necessary.
func (d *Device) file(cpu int) (*os.File, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if file, ok := d.files[cpu]; ok {
		return file, nil
	}

	path := d.Path(cpu)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (is the msr module loaded?)", ErrNoDevice, path)
		}
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("opening %s: %w (CAP_SYS_RAWIO required)", path, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	d.logger.Debug("opened msr device", "path", path)
	d.files[cpu] = file
	return file, nil
}

// Read returns the value of register on cpu.
func (d *Device) Read(cpu int, register uint32) (uint64, error) {
	file, err := d.file(cpu)
	if err != nil {
		return 0, err
	}
	var buffer [8]byte
	count, err := unix.Pread(int(file.Fd()), buffer[:], int64(register))
	if err != nil {
		return 0, fmt.Errorf("reading msr 0x%X on cpu %d: %w", register, cpu, err)
	}
	if count != len(buffer) {
		return 0, fmt.Errorf("reading msr 0x%X on cpu %d: short read (%d bytes)", register, cpu, count)
	}
	return binary.LittleEndian.Uint64(buffer[:]), nil
}

// Write stores value into register on cpu.
func (d *Device) Write(cpu int, register uint32, value uint64) error {
	file, err := d.file(cpu)
	if err != nil {
		return err
	}
	var buffer [8]byte
	binary.LittleEndian.PutUint64(buffer[:], value)
	count, err := unix.Pwrite(int(file.Fd()), buffer[:], int64(register))
	if err != nil {
		return fmt.Errorf("writing msr 0x%X on cpu %d: %w", register, cpu, err)
	}
	if count != len(buffer) {
		return fmt.Errorf("writing msr 0x%X on cpu %d: short write (%d bytes)", register, cpu, count)
	}
	return nil
}

// Close releases every open device node. The Device may be reused
// afterwards; nodes are reopened on demand.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var errs []error
	for cpu, file := range d.files {
		if err := file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing msr device for cpu %d: %w", cpu, err))
		}
		delete(d.files, cpu)
	}
	return errors.Join(errs...)
}
