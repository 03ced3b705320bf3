package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/antworks/antexec/pkg/install"
)

var fetchAntCmd = &cobra.Command{
	Use:   "fetch-ant <version>",
	Short: "Downloads an Apache Ant distribution and registers it as a named installation",
	Long: `Downloads the binary distribution for the given version from the Apache
archive (or --url), verifies the checksum, unpacks it into the tools
directory and adds it to the installations file so jobs can select it by
name. --contrib-url additionally fetches the ant-contrib jar that run copies
into workspaces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return eris.New("expected exactly one version argument")
		}
		version := args[0]

		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return err
		}
		if url == "" {
			url = fmt.Sprintf("https://archive.apache.org/dist/ant/binaries/apache-ant-%s-bin.tar.gz", version)
		}

		checksum, err := cmd.Flags().GetString("sha256")
		if err != nil {
			return err
		}

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		if name == "" {
			name = "ant-" + version
		}

		toolsDir, err := cmd.Flags().GetString("tools-dir")
		if err != nil {
			return err
		}
		if toolsDir == "" {
			registryPath, err := install.DefaultRegistryPath()
			if err != nil {
				return err
			}
			toolsDir = filepath.Join(filepath.Dir(registryPath), "tools")
		}

		dest := filepath.Join(toolsDir, "apache-ant-"+version)
		printTask("Downloading " + url)
		err = install.Fetch(install.FetchSpec{
			URL:      url,
			Sha256:   checksum,
			Dest:     dest,
			Strip:    1,
			MarkExec: []string{filepath.Join("bin", "ant"), filepath.Join("bin", "antRun")},
		})
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

		registry.Add(install.Installation{Name: name, Home: dest})
		err = registry.Save(registryPath)
		if err != nil {
			return err
		}
		printSubtask(fmt.Sprintf("registered installation %s -> %s", name, dest))

		contribURL, err := cmd.Flags().GetString("contrib-url")
		if err != nil {
			return err
		}
		if contribURL != "" {
			contribSha, err := cmd.Flags().GetString("contrib-sha256")
			if err != nil {
				return err
			}

			contribJar, err := install.DefaultContribJar()
			if err != nil {
				return err
			}

			printTask("Downloading " + contribURL)
			err = install.Fetch(install.FetchSpec{
				URL:    contribURL,
				Sha256: contribSha,
				Dest:   contribJar,
			})
			if err != nil {
				return err
			}
			printSubtask("stored " + contribJar)
		}

		printTask("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchAntCmd)

	fetchAntCmd.Flags().String("url", "", "download URL (defaults to the Apache archive for the given version)")
	fetchAntCmd.Flags().String("sha256", "", "expected checksum of the download")
	fetchAntCmd.Flags().String("name", "", "installation name (defaults to ant-<version>)")
	fetchAntCmd.Flags().String("tools-dir", "", "directory distributions are unpacked into (defaults to ~/.antexec/tools)")
	fetchAntCmd.Flags().String("installations", "", "installations file (defaults to ~/.antexec/installations.yml)")
	fetchAntCmd.Flags().String("contrib-url", "", "also fetch the ant-contrib jar from this URL (.jar or archive)")
	fetchAntCmd.Flags().String("contrib-sha256", "", "expected checksum of the ant-contrib download")
}
