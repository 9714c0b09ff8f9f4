//go:build linux

package bootstrap

// selfExePath returns the kernel symlink path, which RunWithPath opens
// directly (spec.md section 4.3 step 1). Using /proc/self/exe instead of
// argv[0] means a launcher executed
// from an anonymous memfd (the chained/two-stage SFX case) still resolves
// to its own backing image.
func selfExePath() (string, error) {
	return "/proc/self/exe", nil
}
