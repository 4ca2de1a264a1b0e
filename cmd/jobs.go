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
	"regexp"
	"sort"

	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/pipeline"
)

// selectJobs picks jobs by name from the defaults, or all defaults when names
// is empty, then appends one playlist group per entry of playlists (job name
// to playlist name regex).
func selectJobs(names []string, playlists map[string]string) ([]pipeline.Job, error) {
	defaults := pipeline.DefaultJobs()

	var jobs []pipeline.Job
	if len(names) == 0 {
		jobs = defaults
	} else {
		byName := make(map[string]pipeline.Job, len(defaults))
		for _, j := range defaults {
			byName[j.Name] = j
		}
		for _, name := range names {
			job, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown job %q", name)
			}
			jobs = append(jobs, job)
		}
	}

	// Map iteration order is random; keep runs reproducible.
	groupNames := make([]string, 0, len(playlists))
	for name := range playlists {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		filter := playlists[name]
		if _, err := regexp.Compile(filter); err != nil {
			return nil, fmt.Errorf("playlist group %q: invalid filter: %w", name, err)
		}
		jobs = append(jobs, pipeline.Job{Name: name, Endpoint: catalog.Playlists, Filter: filter})
	}

	if err := pipeline.ValidateJobs(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
