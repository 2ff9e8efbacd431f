package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestDiscoverSplits(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "digits", "train.csv"), "")
	mustWrite(t, filepath.Join(dir, "digits", "test.csv"), "")
	mustWrite(t, filepath.Join(dir, "sample_submission.csv"), "")

	files, err := Discover(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files.Train, test.ShouldEqual, filepath.Join(dir, "digits", "train.csv"))
	test.That(t, files.Test, test.ShouldEqual, filepath.Join(dir, "digits", "test.csv"))
}

func TestDiscoverPrefersFirstPath(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "b", "train.csv"), "")
	mustWrite(t, filepath.Join(dir, "a", "train.csv"), "")

	files, err := Discover(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files.Train, test.ShouldEqual, filepath.Join(dir, "a", "train.csv"))
	test.That(t, files.Test, test.ShouldBeEmpty)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	test.That(t, err, test.ShouldNotBeNil)
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
