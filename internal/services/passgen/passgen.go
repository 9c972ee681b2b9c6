// Package passgen generates random passwords and writes them into a user CSV
package passgen

import (
	"crypto/rand"
	"encoding/csv"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
)

// Alphabet is the password character set
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PasswordColumn is the column passwords are written to
const PasswordColumn = "password"

// Generator draws passwords from Rand
type Generator struct {
	Rand io.Reader
}

// New returns a generator over crypto/rand
func New() *Generator { return &Generator{Rand: rand.Reader} }

// Generate returns length characters drawn uniformly from Alphabet
func (g *Generator) Generate(length int) (string, error) {
	if length < 1 {
		return "", perr.InvalidArgf("password length must be at least 1, got %d", length)
	}
	n := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		k, err := rand.Int(g.Rand, n)
		if err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeUnknown, "read randomness")
		}
		out[i] = Alphabet[k.Int64()]
	}
	return string(out), nil
}

// Result reports what AddPasswords did
type Result struct {
	Path        string
	Rows        int
	Overwritten bool // the password column already existed
}

// AddPasswords writes one fresh password per data row into path
// the header must contain a column named exactly emailCol; the file is
// replaced atomically through a temp file in the same directory
func (g *Generator) AddPasswords(path, emailCol string, length int) (Result, error) {
	res := Result{Path: path}

	rows, err := readAll(path)
	if err != nil {
		return res, err
	}
	if len(rows) == 0 {
		return res, perr.Configf("Column '%s' not found in CSV. Found columns: []", emailCol)
	}

	header := rows[0]
	if !contains(header, emailCol) {
		return res, perr.WithField(perr.Configf("Column '%s' not found in CSV. Found columns: %q", emailCol, header), emailCol)
	}

	pw := index(header, PasswordColumn)
	res.Overwritten = pw >= 0
	if pw < 0 {
		pw = len(header)
		rows[0] = append(header, PasswordColumn)
	}
	width := len(rows[0])

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		for len(row) < width {
			row = append(row, "")
		}
		p, err := g.Generate(length)
		if err != nil {
			return res, err
		}
		row[pw] = p
		rows[i] = row
		res.Rows++
	}

	if err := writeAtomic(path, rows); err != nil {
		return res, err
	}
	logger.Named("passgen").Debug().Str("path", path).Int("rows", res.Rows).Bool("overwritten", res.Overwritten).Msg("passwords written")
	return res, nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "parse %s", path)
	}
	// spreadsheet exports lead with a UTF-8 BOM
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func writeAtomic(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".passgen-*.csv")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "create temp file")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write csv")
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "close temp file")
	}
	if st, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmp.Name(), st.Mode().Perm())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "replace %s", path)
	}
	return nil
}

func index(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func contains(cols []string, name string) bool { return index(cols, name) >= 0 }
