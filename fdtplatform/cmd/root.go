// Package cmd provides the command-line interface of fdtplatform.
package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/fdtplatform/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is the file system descriptions, configuration, and scaffolds are
// read from and written to.
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fdtplatform",
	Short: "Assemble platforms from flattened device trees.",
	Long: `fdtplatform assembles a platform from a flattened device tree. ` +
		`It settles the memory topology the tree declares, instantiates ` +
		`the described devices, and checks the declared memory against ` +
		`the requested size.`,
	SilenceUsage: true,
}

var (
	configFile string
	envFiles   []string
	flagOpts   = config.Defaults()
)

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configFile, "config", "", "YAML file with options")
	f.StringSliceVar(&envFiles, "env-file", []string{".env"},
		"dotenv files with "+config.EnvPrefix+" variables")
	f.StringVar(&flagOpts.HWDTB, "hw-dtb", "",
		"flattened device tree describing the hardware")
	f.VarP(&flagOpts.MemorySize, "memory", "m",
		"requested memory size, a bare number is MiB")
	f.CountVarP(&flagOpts.Verbose, "verbose", "v", "print more details")
}

var optionFlags = []string{"hw-dtb", "memory", "verbose", "smp", "record",
	"monitor", "monitor-port", "open-browser"}

// loadOptions collects the options from the defaults, the config file, the
// environment, and finally the flags the user set.
func loadOptions(cmd *cobra.Command) (config.Options, error) {
	opts := config.Defaults()

	if configFile != "" {
		err := config.LoadFile(appFs, configFile, &opts)
		if err != nil {
			return opts, err
		}
	}

	err := config.LoadEnv(appFs, &opts, envFiles...)
	if err != nil {
		return opts, err
	}

	for _, name := range optionFlags {
		if cmd.Flags().Changed(name) {
			applyFlag(name, &opts)
		}
	}

	err = opts.Validate()
	if err != nil {
		return opts, err
	}

	return opts, nil
}

func applyFlag(name string, opts *config.Options) {
	switch name {
	case "hw-dtb":
		opts.HWDTB = flagOpts.HWDTB
	case "memory":
		opts.MemorySize = flagOpts.MemorySize
	case "verbose":
		opts.Verbose = flagOpts.Verbose
	case "smp":
		opts.CPUs = flagOpts.CPUs
	case "record":
		opts.RecordPath = flagOpts.RecordPath
	case "monitor":
		opts.Monitor = flagOpts.Monitor
	case "monitor-port":
		opts.MonitorPort = flagOpts.MonitorPort
	case "open-browser":
		opts.OpenBrowser = flagOpts.OpenBrowser
	default:
		panic(fmt.Sprintf("flag %s is not an option", name))
	}
}
