// Package flowcsv reads flow records from the detector's dump format: one
// record per line,
//
//	dst_ip src_ip dst_port src_port protocol time_first time_last bytes packets syn_flag
//
// with unix-second timestamps and a configurable single-character delimiter
// (space by default, comma for CSV exports).
package flowcsv

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"FloodSight/internal/model"
)

const fieldCount = 10

// ParseError reports a malformed line with its position in the input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("flowcsv: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader yields flow records from a file or stdin.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	delim   rune
	line    int
}

// NewReader opens path for reading; "-" selects stdin.
func NewReader(path string) (*Reader, error) {
	file := os.Stdin
	if path != "-" {
		var err error
		file, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("flowcsv: %w", err)
		}
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{file: file, scanner: scanner, delim: ' '}, nil
}

// SetDelimiter changes the field delimiter, e.g. ',' for CSV exports.
func (r *Reader) SetDelimiter(d rune) {
	r.delim = d
}

// Next returns the next record. Malformed lines yield a *ParseError and the
// reader continues with the following line; io.EOF signals end of input.
func (r *Reader) Next() (*model.FlowRecord, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		record, err := ParseRecord(line, r.delim)
		if err != nil {
			return nil, &ParseError{Line: r.line, Err: err}
		}
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("flowcsv: %w", err)
	}
	return nil, io.EOF
}

// Close closes the underlying file; stdin is left open.
func (r *Reader) Close() error {
	if r.file == os.Stdin {
		return nil
	}
	return r.file.Close()
}

// ParseRecord parses a single line of the dump format.
func ParseRecord(line string, delim rune) (*model.FlowRecord, error) {
	var fields []string
	if delim == ' ' {
		fields = strings.Fields(line)
	} else {
		fields = strings.Split(line, string(delim))
	}
	if len(fields) != fieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}

	dstIP := net.ParseIP(strings.TrimSpace(fields[0]))
	if dstIP == nil {
		return nil, fmt.Errorf("bad destination address %q", fields[0])
	}
	srcIP := net.ParseIP(strings.TrimSpace(fields[1]))
	if srcIP == nil {
		return nil, fmt.Errorf("bad source address %q", fields[1])
	}

	dstPort, err := parseUint(fields[2], "destination port", 32)
	if err != nil {
		return nil, err
	}
	srcPort, err := parseUint(fields[3], "source port", 32)
	if err != nil {
		return nil, err
	}
	protocol, err := parseUint(fields[4], "protocol", 8)
	if err != nil {
		return nil, err
	}
	timeFirst, err := parseUint(fields[5], "first timestamp", 64)
	if err != nil {
		return nil, err
	}
	timeLast, err := parseUint(fields[6], "last timestamp", 64)
	if err != nil {
		return nil, err
	}
	bytes, err := parseUint(fields[7], "byte count", 64)
	if err != nil {
		return nil, err
	}
	packets, err := parseUint(fields[8], "packet count", 32)
	if err != nil {
		return nil, err
	}
	syn, err := parseUint(fields[9], "syn flag", 8)
	if err != nil {
		return nil, err
	}

	return &model.FlowRecord{
		DstIP:     dstIP,
		SrcIP:     srcIP,
		DstPort:   uint32(dstPort),
		SrcPort:   uint32(srcPort),
		Protocol:  uint8(protocol),
		TimeFirst: time.Unix(int64(timeFirst), 0).UTC(),
		TimeLast:  time.Unix(int64(timeLast), 0).UTC(),
		Bytes:     bytes,
		Packets:   uint32(packets),
		SynFlag:   syn != 0,
	}, nil
}

func parseUint(s, name string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, s)
	}
	return v, nil
}
