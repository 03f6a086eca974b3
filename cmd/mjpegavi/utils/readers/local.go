package readers

import (
	"context"
	"io"
	"os"
)

func init() {
	Register("", openLocal)
}

func openLocal(_ context.Context, _ string, path string) (io.ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
