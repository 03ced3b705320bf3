package cmd

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/antworks/antexec/pkg/antjob"
	"github.com/antworks/antexec/pkg/install"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generates the transient Ant project for a job and invokes Ant against it",
	Long: `Reads the job file, expands placeholders in the script fragments, writes the
generated build and property files into the workspace, runs Ant and deletes
the generated files again (unless the job keeps them).

Build variables can be passed as repeated --var NAME=VALUE flags; they
override environment variables of the same name and are written to the
generated property file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobPath, err := cmd.Flags().GetString("job")
		if err != nil {
			return err
		}

		workspace, err := cmd.Flags().GetString("workspace")
		if err != nil {
			return err
		}

		vars, err := cmd.Flags().GetStringArray("var")
		if err != nil {
			return err
		}

		buildVars := make(map[string]string)
		for _, entry := range vars {
			pos := strings.Index(entry, "=")
			if pos < 1 {
				return eris.Errorf("expected NAME=VALUE but got %s", entry)
			}
			buildVars[entry[:pos]] = entry[pos+1:]
		}

		cfg, err := antjob.LoadConfig(jobPath)
		if err != nil {
			return err
		}

		registryPath, err := cmd.Flags().GetString("installations")
		if err != nil {
			return err
		}
		if registryPath == "" {
			registryPath, err = install.DefaultRegistryPath()
			if err != nil {
				return err
			}
		}

		registry, err := install.LoadRegistry(registryPath)
		if err != nil {
			return err
		}

		contribJar, err := cmd.Flags().GetString("contrib-jar")
		if err != nil {
			return err
		}
		if contribJar == "" {
			contribJar, err = install.DefaultContribJar()
			if err != nil {
				return err
			}
		}

		logger := zerolog.New(NewConsoleWriter())
		ctx := antjob.WithLogger(cmd.Context(), &logger)

		ok, err := antjob.Perform(ctx, cfg, antjob.PerformOpts{
			Workspace:        workspace,
			BuildVars:        buildVars,
			Lookup:           registry.Lookup,
			HasInstallations: len(registry.Installations) > 0,
			ContribJar:       contribJar,
			Windows:          antjob.DefaultWindows(),
			Sink:             os.Stdout,
		})
		if err != nil {
			return err
		}

		if !ok {
			return eris.New("the build failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("job", "f", "antexec.yml", "job file to run")
	runCmd.Flags().StringP("workspace", "w", ".", "directory the transient files are generated into")
	runCmd.Flags().StringArray("var", nil, "build variable (NAME=VALUE, repeatable)")
	runCmd.Flags().String("installations", "", "installations file (defaults to ~/.antexec/installations.yml)")
	runCmd.Flags().String("contrib-jar", "", "bundled ant-contrib.jar (defaults to ~/.antexec/lib/ant-contrib.jar)")
}
