/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-genre-tools/internal/export"
)

var listRunsCmd = &cobra.Command{
	Use:     "list-runs",
	Short:   "Lists the recorded report runs of the user",
	PreRunE: requireUser,
	Run: func(cmd *cobra.Command, args []string) {
		err := listRuns(os.Stdout, viper.GetString("database"), viper.GetString("user"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var showRunCmd = &cobra.Command{
	Use:   "show-run <id>",
	Short: "Prints the tables of a recorded run",
	Long: `Prints every table saved by a run. With --output the tables are written
again as CSV files under that directory instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outputDir, _ := cmd.Flags().GetString("output")
		err := showRun(os.Stdout, viper.GetString("database"), args[0], outputDir)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

var deleteRunCmd = &cobra.Command{
	Use:   "delete-run <id>",
	Short: "Deletes a recorded run and its tables",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteRun(viper.GetString("database"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listRunsCmd)
	rootCmd.AddCommand(showRunCmd)
	rootCmd.AddCommand(deleteRunCmd)

	showRunCmd.Flags().StringP("output", "o", "", "Write the tables as CSV under this directory")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func listRuns(out io.Writer, dbPath string, user string) error {
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(user)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tFINISHED\tSTATUS\tTABLES\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, formatTime(r.Started), formatTime(r.Finished), r.Status, r.Tables, r.Error)
	}
	return w.Flush()
}

func showRun(out io.Writer, dbPath string, id string, outputDir string) error {
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	tables, err := st.GetTables(id)
	if err != nil {
		return err
	}

	var sink export.Sink = export.TableSink{W: out}
	if outputDir != "" {
		sink = export.CSVSink{Dir: outputDir}
	}
	for _, t := range tables {
		if err := sink.WriteTable(t); err != nil {
			return err
		}
	}
	if outputDir != "" {
		fmt.Fprintf(out, "Wrote %d tables to %s\n", len(tables), outputDir)
	}
	return nil
}

func deleteRun(dbPath string, id string) error {
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRun(id); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s\n", id)
	return nil
}
