package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const filePrefix = "A4Print_"

// Namer hands out export paths of the form A4Print_<unix-millis>.pdf,
// adding a numeric suffix when a name is already taken.
type Namer struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewNamer returns a Namer for dir using the wall clock.
func NewNamer(dir string) *Namer {
	return &Namer{dir: dir, now: time.Now}
}

// WithClock returns a copy of the namer using now as its time source.
func (n *Namer) WithClock(now func() time.Time) *Namer {
	return &Namer{dir: n.dir, now: now}
}

// NextPath returns an unused path in the export directory.
func (n *Namer) NextPath() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	stamp := n.now().UnixMilli()
	for attempt := 0; attempt < 1000; attempt++ {
		name := fmt.Sprintf("%s%d.pdf", filePrefix, stamp)
		if attempt > 0 {
			name = fmt.Sprintf("%s%d_%d.pdf", filePrefix, stamp, attempt)
		}
		candidate := filepath.Join(n.dir, name)
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free export name for timestamp %d", stamp)
}
