package archive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineSize bounds a single JSON line; embedded documents can be several MiB.
const maxLineSize = 10 * 1024 * 1024

// lineFile is an open, possibly decompressed, line-oriented file.
type lineFile struct {
	f  *os.File
	gz *gzip.Reader
	sc *bufio.Scanner
}

// openLines opens path for line scanning, transparently gunzipping files
// whose name ends in ".gz".
func openLines(path string) (*lineFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	lf := &lineFile{f: f}
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		lf.gz = gz
		r = gz
	}

	lf.sc = bufio.NewScanner(r)
	lf.sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return lf, nil
}

func (lf *lineFile) Close() error {
	var gzErr error
	if lf.gz != nil {
		gzErr = lf.gz.Close()
	}
	if err := lf.f.Close(); err != nil {
		return err
	}
	return gzErr
}
