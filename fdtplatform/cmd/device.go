package cmd

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

//go:embed templates/builderTemplate.txt
var builderTemplate string

//go:embed templates/compTemplate.txt
var compTemplate string

var errBadDeviceName = errors.New("device name must be a lower case identifier")

var deviceNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Create device factories.",
	Long: "`device --create [DeviceName] --compatible [vendor,model]` " +
		"creates a new device package under devices/.",
	Run: func(cmd *cobra.Command, _ []string) {
		name, _ := cmd.Flags().GetString("create")
		compatible, _ := cmd.Flags().GetString("compatible")
		dir, _ := cmd.Flags().GetString("dir")

		if name == "" {
			fmt.Println("Action not valid.")
			return
		}

		err := createDevice(dir, name, compatible, os.Stdout)
		if err != nil {
			atexit.Fatalf("Error creating device: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.Flags().String("create", "", "Create a new device")
	deviceCmd.Flags().String("compatible", "",
		"compatible string of the device, vendor,<name> if unset")
	deviceCmd.Flags().String("dir", "devices",
		"directory that holds the device packages")
}

func createDevice(dir, name, compatible string, out io.Writer) error {
	if !deviceNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", errBadDeviceName, name)
	}

	if compatible == "" {
		compatible = "vendor," + name
	}

	folder := filepath.Join(dir, name)

	err := createDeviceFolder(folder)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Device '%s' created successfully!\n", name)

	r := strings.NewReplacer(
		"{{packageName}}", name,
		"{{compatible}}", compatible,
	)

	err = afero.WriteFile(appFs, filepath.Join(folder, "builder.go"),
		[]byte(r.Replace(builderTemplate)), 0o644)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Builder file generated successfully!")

	err = afero.WriteFile(appFs, filepath.Join(folder, "comp.go"),
		[]byte(r.Replace(compTemplate)), 0o644)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Comp file generated successfully!")

	return nil
}

func createDeviceFolder(folder string) error {
	exists, err := afero.Exists(appFs, folder)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("folder '%s' already exists", folder)
	}

	return appFs.MkdirAll(folder, 0o755)
}
