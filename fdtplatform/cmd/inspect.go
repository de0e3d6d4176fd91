package cmd

import (
	"io"
	"os"

	"github.com/sarchlab/fdtplatform/config"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/platform"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	normalize bool
	dtbOut    string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a device tree in source form.",
	Long: "`inspect --hw-dtb board.dtb` prints the tree. With --normalize " +
		"the canonical memory node is added first if the tree lacks one.",
	Run: func(cmd *cobra.Command, _ []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}

		err = inspect(opts, os.Stdout)
		if err != nil {
			atexit.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	f := inspectCmd.Flags()
	f.BoolVar(&normalize, "normalize", false,
		"add the canonical memory node, sized by --memory, if missing")
	f.StringVar(&dtbOut, "dtb-out", "", "also write the tree as a blob")
}

func inspect(opts config.Options, out io.Writer) error {
	tree, err := platform.NewFileSource(appFs, opts.HWDTB).Load()
	if err != nil {
		return err
	}

	if normalize {
		_, err = platform.EnsureTopLevelMemoryNode(tree, opts.RequestedMemory())
		if err != nil {
			return err
		}
	}

	if dtbOut != "" {
		blob, err := fdt.Marshal(tree)
		if err != nil {
			return err
		}

		err = afero.WriteFile(appFs, dtbOut, blob, 0o644)
		if err != nil {
			return err
		}
	}

	return tree.WriteDTS(out)
}
