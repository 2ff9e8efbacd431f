package dataset

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var splitRegexp = regexp.MustCompile(`^(train|test)\.csv$`)

// Files are the CSV splits found under a data directory.
type Files struct {
	Train string
	Test  string
}

// Discover walks root for train.csv and test.csv. When a split appears more
// than once the lexically first path wins.
func Discover(root string) (Files, error) {
	var train, test []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := splitRegexp.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		if m[1] == "train" {
			train = append(train, path)
		} else {
			test = append(test, path)
		}
		return nil
	})
	if err != nil {
		return Files{}, errors.Wrap(err, "discover splits")
	}
	sort.Strings(train)
	sort.Strings(test)

	var files Files
	if len(train) > 0 {
		files.Train = train[0]
	}
	if len(test) > 0 {
		files.Test = test[0]
	}
	return files, nil
}
