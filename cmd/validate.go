package cmd

import (
	"io/ioutil"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/antworks/antexec/pkg/antjob"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Checks whether a script fragment yields a well-formed build file",
	Long: `Wraps the fragment the same way a run would and parses the result with a
strict XML parser. Reads from stdin when no file is given. The fragments are
embedded into the build file without any escaping, so this is the only
well-formedness check a job gets before Ant sees the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return eris.New("expected at most one file argument")
		}

		var data []byte
		var err error
		if len(args) == 1 {
			data, err = ioutil.ReadFile(args[0])
			if err != nil {
				return eris.Wrapf(err, "could not read %s", args[0])
			}
		} else {
			data, err = ioutil.ReadAll(os.Stdin)
			if err != nil {
				return eris.Wrap(err, "could not read stdin")
			}
		}

		extended, err := cmd.Flags().GetBool("extended")
		if err != nil {
			return err
		}

		err = antjob.ValidateFragment(string(data), extended)
		if err != nil {
			return err
		}

		printSubtask("the script source is well-formed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("extended", false, "validate the fragment in the extended script position")
}
