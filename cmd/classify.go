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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <genre>...",
	Short: "Prints the supergenre assigned to a set of genre tags",
	Long: `Classifies the given genre tags as one item would be: prints whether any tag
matched and which supergenre won under --match_policy.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := classifyTags(os.Stdout, viper.GetString("taxonomy"), viper.GetString("match_policy"), args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func classifyTags(out io.Writer, taxonomyPath, matchPolicy string, tags []string) error {
	taxonomy, err := loadTaxonomy(taxonomyPath, nil)
	if err != nil {
		return err
	}
	policy, err := genre.ParseMatchPolicy(matchPolicy)
	if err != nil {
		return err
	}

	classifier := genre.Classifier{Taxonomy: taxonomy, Policy: policy}
	isMatch, key := classifier.Classify(genre.Tags(tags))
	if !isMatch {
		fmt.Fprintln(out, "No supergenre")
		return nil
	}
	fmt.Fprintf(out, "%s (%s)\n", taxonomy.DisplayName(key), key)
	return nil
}
