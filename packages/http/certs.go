package http

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
)

// LoadCertPool builds the trust pool for a CA path. A file is read as a PEM
// bundle; for a directory every regular file in it is read, and files
// without PEM certificates are skipped. The pool replaces the system roots.
func LoadCertPool(path string) (*x509.CertPool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read CA path: %w", err)
	}

	pool := x509.NewCertPool()

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read CA bundle: %w", err)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("no PEM certificates in %s", path)
		}
		return pool, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read CA directory: %w", err)
	}

	found := false
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read CA file: %w", err)
		}
		if pool.AppendCertsFromPEM(data) {
			found = true
		}
	}

	if !found {
		return nil, fmt.Errorf("no PEM certificates in directory %s", path)
	}
	return pool, nil
}
