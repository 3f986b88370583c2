package flowcsv

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flows.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRecords(t *testing.T) {
	path := writeInput(t, `# comment line
10.0.0.1 192.168.1.5 80 44123 6 1401624000 1401624003 180 3 1

10.0.0.2 192.168.1.6 443 44124 17 1401624010 1401624010 60 1 0
`)

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	first, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.DstIP.String() != "10.0.0.1" {
		t.Errorf("DstIP = %s, want 10.0.0.1", first.DstIP)
	}
	if first.DstPort != 80 || first.SrcPort != 44123 {
		t.Errorf("ports = %d/%d, want 80/44123", first.DstPort, first.SrcPort)
	}
	if first.Protocol != 6 || !first.SynFlag {
		t.Errorf("protocol/syn = %d/%v, want 6/true", first.Protocol, first.SynFlag)
	}
	if first.TimeLast.Unix() != 1401624003 {
		t.Errorf("TimeLast = %d, want 1401624003", first.TimeLast.Unix())
	}
	if first.Bytes != 180 || first.Packets != 3 {
		t.Errorf("bytes/packets = %d/%d, want 180/3", first.Bytes, first.Packets)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if second.Protocol != 17 || second.SynFlag {
		t.Errorf("protocol/syn = %d/%v, want 17/false", second.Protocol, second.SynFlag)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestMalformedLineContinues(t *testing.T) {
	path := writeInput(t, `10.0.0.1 192.168.1.5 80 44123 6 not-a-time 1401624003 180 3 1
10.0.0.2 192.168.1.6 443 44124 6 1401624010 1401624010 60 1 0
`)

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	_, err = r.Next()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Line != 1 {
		t.Errorf("ParseError.Line = %d, want 1", parseErr.Line)
	}

	record, err := r.Next()
	if err != nil {
		t.Fatalf("reader did not continue past the bad line: %v", err)
	}
	if record.DstIP.String() != "10.0.0.2" {
		t.Errorf("DstIP = %s, want 10.0.0.2", record.DstIP)
	}
}

func TestCommaDelimiter(t *testing.T) {
	path := writeInput(t, "10.0.0.1,192.168.1.5,80,44123,6,1401624000,1401624003,180,3,1\n")

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	r.SetDelimiter(',')

	record, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if record.DstIP.String() != "10.0.0.1" || record.Packets != 3 {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestOversizedPortSurvivesParsing(t *testing.T) {
	// Out-of-range ports are the engine's call to reject, not the parser's.
	record, err := ParseRecord("10.0.0.1 192.168.1.5 70000 1 6 1401624000 1401624003 180 3 1", ' ')
	if err != nil {
		t.Fatal(err)
	}
	if record.DstPort != 70000 {
		t.Errorf("DstPort = %d, want 70000", record.DstPort)
	}
}
