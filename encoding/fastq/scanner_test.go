package fastq

import (
	"bytes"
	"testing"
)

const fq = `@M03018:203:000000000-BX2FF:1:1101:17756:1069 1:N:0:ATCACG
ACGTACGTACGTACGTTTTTTTTTTT
+
AAAAAEEEEEEE#EEAEEEEEEEEEE
@M03018:203:000000000-BX2FF:1:1101:13871:1070 1:N:0:ATCACG
CTCAACTCTGAGNCAGACAGAAATAC
+
AAAAAEEEEEEE#EEEEEEEEEEEEE
`

func scanErr(s string) error {
	scan := NewScanner(bytes.NewReader([]byte(s)))
	var r Read
	for scan.Scan(&r) {
	}
	return scan.Err()
}

func TestFASTQ(t *testing.T) {
	s := NewScanner(bytes.NewReader([]byte(fq)))
	var r Read
	if !s.Scan(&r) {
		t.Fatal(s.Err())
	}
	expect := Read{
		Name: "M03018:203:000000000-BX2FF:1:1101:17756:1069",
		Seq:  "ACGTACGTACGTACGTTTTTTTTTTT",
		Qual: "AAAAAEEEEEEE#EEAEEEEEEEEEE",
	}
	if got, want := r, expect; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !s.Scan(&r) {
		t.Fatal(s.Err())
	}
	if got, want := r.Name, "M03018:203:000000000-BX2FF:1:1101:13871:1070"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if s.Scan(&r) {
		t.Error("expected EOF")
	}
	if err := s.Err(); err != nil {
		t.Error(err)
	}
}

func TestTruncated(t *testing.T) {
	if got, want := scanErr("@x\nACGT\n+\n"), ErrTruncated; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := scanErr("@x\nACGT\n"), ErrTruncated; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInvalid(t *testing.T) {
	// A missing '@', a missing '+', and a quality string shorter than
	// the sequence.
	for _, data := range []string{
		"x\nACGT\n+\nIIII\n",
		"@x\nACGT\nIIII\nIIII\n",
		"@x\nACGT\n+\nIII\n",
	} {
		if got, want := scanErr(data), ErrInvalid; got != want {
			t.Errorf("%q: got %v, want %v", data, got, want)
		}
	}
}

func TestPairScanner(t *testing.T) {
	r1 := "@r1/1\nAAAA\n+\nIIII\n"
	r2 := "@r1/2\nCCCC\n+\nIIII\n"
	s := NewPairScanner(bytes.NewReader([]byte(r1)), bytes.NewReader([]byte(r2)))
	var a, b Read
	if !s.Scan(&a, &b) {
		t.Fatal(s.Err())
	}
	if got, want := a.Name, b.Name; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if s.Scan(&a, &b) {
		t.Error("expected EOF")
	}
	if err := s.Err(); err != nil {
		t.Error(err)
	}
}

func TestPairScannerDiscordant(t *testing.T) {
	r1 := "@r1\nAAAA\n+\nIIII\n@r2\nAAAA\n+\nIIII\n"
	r2 := "@r1\nCCCC\n+\nIIII\n"
	s := NewPairScanner(bytes.NewReader([]byte(r1)), bytes.NewReader([]byte(r2)))
	var a, b Read
	for s.Scan(&a, &b) {
	}
	if got, want := s.Err(), ErrDiscordant; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// A malformed mate reports the framing error, not discordance.
func TestPairScannerTruncatedMate(t *testing.T) {
	r1 := "@r1\nAAAA\n+\nIIII\n"
	r2 := "@r1\nCCCC\n+\n"
	s := NewPairScanner(bytes.NewReader([]byte(r1)), bytes.NewReader([]byte(r2)))
	var a, b Read
	for s.Scan(&a, &b) {
	}
	if got, want := s.Err(), ErrTruncated; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCanonicalID(t *testing.T) {
	tests := []struct{ id, want string }{
		{"@read1", "read1"},
		{"@read1/1", "read1"},
		{"@read1/2", "read1"},
		{"@read1 1:N:0:ATCACG", "read1"},
		{"@read1/1 extra", "read1"},
		{"@read1\tcomment", "read1"},
		{"read1/2", "read1"},
		{"", ""},
	}
	for _, test := range tests {
		if got := CanonicalID(test.id); got != test.want {
			t.Errorf("CanonicalID(%q): got %q, want %q", test.id, got, test.want)
		}
	}
}
