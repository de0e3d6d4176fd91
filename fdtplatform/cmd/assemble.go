package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/sarchlab/fdtplatform/config"
	"github.com/sarchlab/fdtplatform/datarecording"
	"github.com/sarchlab/fdtplatform/devices/memoryregion"
	"github.com/sarchlab/fdtplatform/fdtgeneric"
	"github.com/sarchlab/fdtplatform/memory"
	"github.com/sarchlab/fdtplatform/monitoring"
	"github.com/sarchlab/fdtplatform/platform"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the platform a device tree describes.",
	Long: "`assemble --hw-dtb board.dtb -m 2G` builds the platform, " +
		"settles its memory size, and prints a summary.",
	Run: func(cmd *cobra.Command, _ []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}

		logger := log.New(os.Stderr, "", 0)

		run, err := assemble(opts, logger, os.Stdout)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}

		if opts.Monitor {
			serveMonitor(cmd.Context(), opts, run.platform)
		}
	},
}

func init() {
	rootCmd.AddCommand(assembleCmd)

	f := assembleCmd.Flags()
	f.IntVar(&flagOpts.CPUs, "smp", config.DefaultCPUs,
		fmt.Sprintf("number of CPUs, at most %d", config.MaxCPUs))
	f.StringVar(&flagOpts.RecordPath, "record", "",
		"record regions and components into <path>.sqlite3")
	f.BoolVar(&flagOpts.Monitor, "monitor", false,
		"serve the platform on a web monitor until interrupted")
	f.IntVar(&flagOpts.MonitorPort, "monitor-port", config.DefaultMonitorPort,
		"port of the web monitor, random if unset")
	f.BoolVar(&flagOpts.OpenBrowser, "open-browser", false,
		"open the web monitor in a browser")
}

type assembly struct {
	opts     config.Options
	platform *platform.Platform
	ram      *memory.Storage
}

func newFramework() *fdtgeneric.Framework {
	registry := fdtgeneric.NewRegistry()
	memoryregion.Register(registry)

	return fdtgeneric.NewFramework(registry)
}

// assemble builds the platform opts describe, publishes the memory size it
// settles on, and allocates RAM of that size.
func assemble(
	opts config.Options,
	logger *log.Logger,
	out io.Writer,
) (*assembly, error) {
	framework := newFramework()
	builder := platform.MakeBuilder().
		WithFramework(platform.GenericFramework(framework)).
		WithHook(platform.NewLogHook(logger, opts.Verbose))

	if opts.Verbose > 0 {
		framework.AcceptHook(fdtgeneric.NewLogHook(logger))
	}

	if opts.RecordPath != "" {
		recorder := datarecording.New(opts.RecordPath)
		defer func() {
			err := recorder.Close()
			if err != nil {
				logger.Printf("Error: closing recorder: %v", err)
			}
		}()

		framework.AcceptHook(fdtgeneric.NewRecordHook(recorder))
		builder = builder.WithHook(platform.NewRecordHook(recorder))
	}

	src := platform.NewFileSource(appFs, opts.HWDTB)

	p, err := builder.Build().Assemble(src, opts.RequestedMemory())
	if err != nil {
		return nil, err
	}

	opts.ApplyMemorySize(p.MemorySize)

	run := &assembly{
		opts:     opts,
		platform: p,
		ram:      memory.NewStorage(opts.RequestedMemory()),
	}

	run.printSummary(out)

	return run, nil
}

func (a *assembly) printSummary(w io.Writer) {
	p := a.platform

	fmt.Fprintf(w, "Machine:     %s (%s)\n",
		config.MachineName, config.MachineDescription)
	fmt.Fprintf(w, "CPUs:        %d\n", a.opts.CPUs)
	fmt.Fprintf(w, "Memory node: %s (%s)\n",
		p.MemoryNode.Path, p.MemoryNode.Outcome)

	source := fmt.Sprintf("declared by %d region(s)", len(p.Regions))
	if p.FromSeed {
		source = "taken from the memory node"
	}

	fmt.Fprintf(w, "Memory:      %s, %s\n",
		humanize.IBytes(a.ram.Capacity()), source)
	fmt.Fprintf(w, "Requested:   %s\n", humanize.IBytes(p.RequestedSize))
	fmt.Fprintf(w, "Components:  %d\n", len(p.Components))

	for _, c := range p.Components {
		fmt.Fprintf(w, "  %s (%s)\n", c.Name, c.Compatible)
	}
}

func serveMonitor(
	ctx context.Context,
	opts config.Options,
	p *platform.Platform,
) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	m := monitoring.NewMonitor().WithBrowser(opts.OpenBrowser)
	if opts.MonitorPort != 0 {
		m.WithPortNumber(opts.MonitorPort)
	}

	m.RegisterPlatform(p)
	m.StartServer()

	<-ctx.Done()
}
