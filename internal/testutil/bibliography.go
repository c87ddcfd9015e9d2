package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// BasicBibTeX holds three entries with distinct years and authors.
const BasicBibTeX = `@article{einstein1905,
    author = {Einstein, A.},
    title = {Zur Elektrodynamik bewegter K{\"o}rper},
    journal = {Annalen der Physik},
    volume = {322},
    number = {10},
    pages = {891-921},
    year = {1905},
    doi = {10.1002/andp.19053221004}
}

@article{epr1935,
    author = {Einstein, A. and Podolsky, B. and Rosen, N.},
    title = {Can Quantum-Mechanical Description of Physical Reality Be Considered Complete?},
    journal = {Physical Review},
    volume = {47},
    pages = {777--780},
    year = {1935},
    doi = {10.1103/PhysRev.47.777}
}

@article{schrodinger1926,
    author = {Schr{\"o}dinger, E.},
    title = {Quantisierung als Eigenwertproblem},
    journal = {Annalen der Physik},
    year = {1926}
}
`

// WriteBibTeX writes content to bibliography.bib in a fresh temporary
// directory and returns the file path.
func WriteBibTeX(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bibliography.bib")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
