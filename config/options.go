// Package config collects the options of a platform run from defaults, a
// YAML file, the environment, and command-line flags.
package config

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Machine metadata.
const (
	MachineName        = "arm-generic-fdt2"
	MachineDescription = "ARM device tree driven machine model"
	MaxCPUs            = 6
	DefaultCPUs        = 6
	DefaultMemorySize  = 128 * humanize.MiByte
	DefaultMonitorPort = 0
)

// Errors reported while collecting options.
var (
	ErrBadSize    = errors.New("invalid memory size")
	ErrBadCPUs    = errors.New("invalid CPU count")
	ErrBadOption  = errors.New("invalid option")
	ErrZeroMemory = errors.New("memory size must not be zero")
)

// Options configures a platform run.
type Options struct {
	HWDTB       string `yaml:"hw-dtb"`
	MemorySize  Size   `yaml:"memory"`
	CPUs        int    `yaml:"cpus"`
	RecordPath  string `yaml:"record"`
	Monitor     bool   `yaml:"monitor"`
	MonitorPort int    `yaml:"monitor-port"`
	OpenBrowser bool   `yaml:"open-browser"`
	Verbose     int    `yaml:"verbose"`
}

// Defaults returns the options of a run that sets nothing.
func Defaults() Options {
	return Options{
		MemorySize:  Size(DefaultMemorySize),
		CPUs:        DefaultCPUs,
		MonitorPort: DefaultMonitorPort,
	}
}

// Validate checks the options against the machine's limits.
func (o Options) Validate() error {
	if o.CPUs < 1 || o.CPUs > MaxCPUs {
		return fmt.Errorf("%w: %d, %s supports 1 to %d",
			ErrBadCPUs, o.CPUs, MachineName, MaxCPUs)
	}

	if o.MemorySize == 0 {
		return ErrZeroMemory
	}

	if o.MonitorPort < 0 || o.MonitorPort > 65535 {
		return fmt.Errorf("%w: monitor port %d", ErrBadOption, o.MonitorPort)
	}

	return nil
}

// RequestedMemory returns the memory size in bytes.
func (o *Options) RequestedMemory() uint64 {
	return uint64(o.MemorySize)
}

// ApplyMemorySize publishes the memory size the platform settled on.
func (o *Options) ApplyMemorySize(size uint64) {
	o.MemorySize = Size(size)
}
