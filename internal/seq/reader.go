package seq

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Format is the text format of a sequence read archive file.
type Format uint8

const (
	// FASTA has '>' titles and sequences that may wrap over many lines
	FASTA Format = iota

	// FASTQ has '@' titles, one sequence line, a '+' line and one quality line
	FASTQ
)

// String returns the name of the format.
func (f Format) String() string {
	if f == FASTQ {
		return "FASTQ"
	}
	return "FASTA"
}

// marker is the first byte of a title line.
func (f Format) marker() byte {
	if f == FASTQ {
		return '@'
	}
	return '>'
}

// FormatOf guesses the format of a file from its extension. A trailing
// ".gz" is ignored. ok is false if the extension is unknown.
func FormatOf(path string) (f Format, ok bool) {
	path = strings.ToLower(path)
	path = strings.TrimSuffix(path, ".gz")

	switch filepath.Ext(path) {
	case ".fa", ".fasta", ".fna", ".fas", ".ffn", ".fsa":
		return FASTA, true
	case ".fq", ".fastq":
		return FASTQ, true
	}
	return FASTA, false
}

// state is where the Reader is within a record.
type state uint8

const (
	expectHeader state = iota
	inSequence
	inQuality
)

// Reader reads Records from FASTA or FASTQ text, one at a time. It can't be
// rewound.
type Reader struct {
	br     *bufio.Reader
	format Format
	mode   EndMode
	state  state

	// the record being accumulated
	titled bool
	open   bool
	name string
	end  End
	seq  strings.Builder

	line    int
	read    int
	skipped int
	done    bool
}

// NewReader returns a Reader of records in the format from r. The ends of
// the records are decided by mode.
func NewReader(r io.Reader, format Format, mode EndMode) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<16)
	}

	return &Reader{br: br, format: format, mode: mode}
}

// Format is the format the Reader parses.
func (r *Reader) Format() Format {
	return r.format
}

// Read returns the next Record. It returns io.EOF after the last one.
func (r *Reader) Read() (Record, error) {
	for !r.done {
		line, err := r.br.ReadString('\n')
		if err != nil && err != io.EOF {
			return Record{}, errors.Wrapf(err, "failed to read line %d", r.line+1)
		}

		if line != "" {
			r.line++
			rec, ok, err := r.next(line)
			if err != nil {
				r.done = true
				return Record{}, err
			}
			if ok {
				r.read++
				return rec, nil
			}
		}

		if err == io.EOF {
			r.done = true
			if rec, ok := r.flush(); ok {
				r.read++
				return rec, nil
			}
		}
	}

	return Record{}, io.EOF
}

// Count is the number of records read so far.
func (r *Reader) Count() int {
	return r.read
}

// Skipped is the number of titles that were dropped for having no sequence.
func (r *Reader) Skipped() int {
	return r.skipped
}

// next moves the state machine over one line, returning a Record if the
// line completed one. Text that isn't UTF-8, or that comes before the first
// title, is an error.
func (r *Reader) next(line string) (Record, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	if !utf8.ValidString(line) {
		return Record{}, false, errors.Errorf("invalid UTF-8 on line %d", r.line)
	}

	if r.state == inQuality {
		r.state = expectHeader // the quality line is discarded, whatever it starts with
		return Record{}, false, nil
	}

	if strings.TrimSpace(line) == "" {
		return Record{}, false, nil
	}

	if line[0] == r.format.marker() {
		rec, ok := r.flush()
		r.name, r.end = r.mode.Apply(ParseHeader(line))
		r.titled = true
		r.open = true
		r.state = inSequence
		return rec, ok, nil
	}

	if !r.titled {
		return Record{}, false, errors.Errorf("line %d comes before the first %s title, is the file %s?", r.line, string(r.format.marker()), r.format)
	}

	if r.state != inSequence {
		return Record{}, false, nil // extra line after a quality line
	}

	if r.format == FASTQ && line[0] == '+' {
		r.state = inQuality
		return Record{}, false, nil
	}

	r.seq.WriteString(strings.TrimSpace(line))
	return Record{}, false, nil
}

// flush closes the record being accumulated.
func (r *Reader) flush() (Record, bool) {
	if !r.open {
		return Record{}, false
	}

	rec := Record{Name: r.name, End: r.end, Seq: r.seq.String()}
	r.open = false
	r.seq.Reset()

	if rec.Seq == "" {
		r.skipped++
		return Record{}, false
	}
	return rec, true
}
