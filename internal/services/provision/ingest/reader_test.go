package ingest

import (
	"errors"
	"strings"
	"testing"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/testkit"
	"ballotbox/internal/services/provision/domain"
)

func mustRead(t *testing.T, in string) Result {
	t.Helper()
	res, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return res
}

func pairs(es []domain.Entry) string {
	var b strings.Builder
	for _, e := range es {
		b.WriteString(e.Identifier + "/" + e.Secret + ";")
	}
	return b.String()
}

func TestRead_PositionalDedupe(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "a@x.com,p1\nb@x.com,p2\na@x.com,p3\n")
	if res.HasHeader {
		t.Fatalf("no header expected")
	}
	if got := pairs(res.Entries); got != "a@x.com/p1;b@x.com/p2;" {
		t.Fatalf("entries = %q", got)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	sk := res.Skipped[0]
	if sk.Row != 3 || sk.Reason != domain.SkipDuplicate || sk.FirstRow != 1 {
		t.Fatalf("skip = %+v", sk)
	}
	if sk.String() != "Skipping row 3: duplicate of row 1" {
		t.Fatalf("skip line = %q", sk.String())
	}
}

func TestRead_HeaderAnyOrder(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "Password , EMAIL\nsecret,a@x.com\n")
	if !res.HasHeader {
		t.Fatalf("header expected")
	}
	if got := pairs(res.Entries); got != "a@x.com/secret;" {
		t.Fatalf("entries = %q", got)
	}
	if res.Entries[0].Row != 2 {
		t.Fatalf("row = %d, want 2", res.Entries[0].Row)
	}
}

func TestRead_HeaderWithExtraColumns(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "name,email,password\nAda,ada@x.com,pw1\nGrace,grace@x.com,pw2\n")
	if got := pairs(res.Entries); got != "ada@x.com/pw1;grace@x.com/pw2;" {
		t.Fatalf("entries = %q", got)
	}
}

func TestRead_HeaderMappedEmptyFallsBackToPosition(t *testing.T) {
	t.Parallel()

	// password column blank on the data row, position 1 is used instead
	res := mustRead(t, "email,extra,password\na@x.com,fallback,\n")
	if got := pairs(res.Entries); got != "a@x.com/fallback;" {
		t.Fatalf("entries = %q", got)
	}
}

func TestRead_BOMHeader(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "\ufeffemail,password\na@x.com,p\n")
	if !res.HasHeader || len(res.Entries) != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestRead_SingleColumnHeaderIsData(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "email\na@x.com,p\n")
	if res.HasHeader {
		t.Fatalf("one-field first row cannot be a header")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != domain.SkipMalformed {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	testkit.MustContain(t, res.Skipped[0].String(), "expected at least 2 fields, got 1")
}

func TestRead_EmptyAndMalformed(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "a@x.com, \n  ,pw\nonly\n b@x.com , pw \n")
	if got := pairs(res.Entries); got != "b@x.com/pw;" {
		t.Fatalf("entries = %q", got)
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	want := []domain.SkipReason{domain.SkipEmpty, domain.SkipEmpty, domain.SkipMalformed}
	for i, s := range res.Skipped {
		if s.Reason != want[i] {
			t.Fatalf("skip[%d] = %s, want %s", i, s.Reason, want[i])
		}
	}
	testkit.MustContain(t, res.Skipped[0].String(), "password is a required field")
	testkit.MustContain(t, res.Skipped[1].String(), "email is a required field")
}

func TestRead_DedupeIsCaseSensitive(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "a@x.com,p1\nA@x.com,p2\n a@x.com ,p3\n")
	if len(res.Entries) != 2 {
		t.Fatalf("entries = %q", pairs(res.Entries))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Row != 3 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestRead_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader(""))
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestRead_HeaderOnlyIsNotEmpty(t *testing.T) {
	t.Parallel()

	res := mustRead(t, "email,password\n")
	if len(res.Entries) != 0 || res.RowsRead != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile("/definitely/not/here.csv")
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("err = %v, want config code", err)
	}
	testkit.MustContain(t, err.Error(), "CSV file not found")
}

func TestReadFile_OK(t *testing.T) {
	t.Parallel()

	p := testkit.WriteFile(t, "users.csv", "email,password\na@x.com,p\n")
	res, err := ReadFile(p)
	if err != nil || len(res.Entries) != 1 {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
}
