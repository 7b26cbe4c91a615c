//go:build !unix

package memory

import "os"

func Map(path string, base uint64) (*Physical, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return New(base, buf), nil
}
