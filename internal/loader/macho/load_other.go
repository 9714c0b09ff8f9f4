//go:build !darwin

package macho

import (
	"errors"

	"github.com/xsfx/xsfx/internal/loader"
)

// Loader is unavailable outside macOS; cmd/launcher never selects it on
// other platforms, but the package must still build everywhere the test
// suite runs.
type Loader struct{}

var _ loader.Loader = Loader{}

func (Loader) Load([]byte, []string, string) (int, error) {
	return 1, errors.New("macho: loader unavailable on this platform")
}
