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
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Prints the supergenre taxonomy in use",
	Long: `Prints every supergenre with its genre tags, followed by tags declared under
more than one supergenre. Uses the built in taxonomy unless --taxonomy points
to a YAML or TOML file.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := printTaxonomy(viper.GetString("taxonomy"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)

	var taxonomyPath string
	rootCmd.PersistentFlags().StringVar(&taxonomyPath, "taxonomy", "", "YAML or TOML supergenre taxonomy (default built in)")
	viper.BindPFlag("taxonomy", rootCmd.PersistentFlags().Lookup("taxonomy"))

	var matchPolicy string
	rootCmd.PersistentFlags().StringVar(&matchPolicy, "match_policy", "last", "Which supergenre wins when tags match several: last or first")
	viper.BindPFlag("match_policy", rootCmd.PersistentFlags().Lookup("match_policy"))
}

// loadTaxonomy reads the taxonomy at path, or the built in one when path is
// empty. Overlapping tags are only warned about.
func loadTaxonomy(path string, logger *log.Logger) (*genre.Taxonomy, error) {
	var taxonomy *genre.Taxonomy
	if path == "" {
		taxonomy = genre.DefaultTaxonomy()
	} else {
		var err error
		taxonomy, err = genre.LoadTaxonomy(path)
		if err != nil {
			return nil, err
		}
	}

	if logger != nil {
		for _, o := range taxonomy.Overlaps() {
			logger.Warn("Genre is in several supergenres", "genre", o.Tag, "supergenres", strings.Join(o.Keys, ", "))
		}
	}
	return taxonomy, nil
}

func printTaxonomy(path string) error {
	taxonomy, err := loadTaxonomy(path, nil)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "Name", "Genres")
	for _, g := range taxonomy.Supergenres() {
		table.Append(g.Key, g.Name(), strings.Join(g.Tags, ", "))
	}
	table.Render()

	overlaps := taxonomy.Overlaps()
	if len(overlaps) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Genres in several supergenres:")
	for _, o := range overlaps {
		fmt.Printf("  %s: %s\n", o.Tag, strings.Join(o.Keys, ", "))
	}
	return nil
}
