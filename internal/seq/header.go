package seq

import (
	"fmt"
	"strings"
)

// separators may sit between a read name and its trailing end number
const separators = "/._ \t"

// Header is a parsed title line. It is either Parsed, with a Name and an End
// from a trailing suffix like "/1", or not, with only the Raw title text.
type Header struct {
	// Name is the title without the end suffix. Set only when parsed
	Name string

	// End from the suffix. Set only when parsed
	End End

	// Raw is the title without its leading '>' or '@'
	Raw string

	parsed bool
}

// Parsed returns whether an end suffix was found in the title.
func (h Header) Parsed() bool {
	return h.parsed
}

// ParseHeader splits a FASTA/FASTQ title line into the read name and its end.
//
// A title like "read_7/2" parses to ("read_7", Two). A title without a
// recognizable suffix is returned unparsed and never fails.
func ParseHeader(line string) Header {
	text := strings.TrimRight(line, " \t\r\n")
	if text != "" && (text[0] == '>' || text[0] == '@') {
		text = text[1:]
	}
	text = strings.TrimLeft(text, " \t")

	if text == "" {
		// nothing but the marker: the whole line is the name
		return Header{Raw: strings.TrimRight(line, "\r\n")}
	}

	n := len(text)
	if n < 3 || !strings.ContainsRune(separators, rune(text[n-2])) {
		return Header{Raw: text}
	}

	var end End
	switch text[n-1] {
	case '1':
		end = One
	case '2':
		end = Two
	default:
		return Header{Raw: text}
	}

	name := strings.TrimRight(text[:n-2], " \t")
	if name == "" {
		return Header{Raw: text}
	}

	return Header{Name: name, End: end, Raw: text, parsed: true}
}

// EndMode is how the ends of reads in a file are decided.
type EndMode uint8

const (
	// Mixed files have both mates, the end is read from each title
	Mixed EndMode = iota

	// End1 files only have first mates
	End1

	// End2 files only have second mates
	End2

	// Single files are unpaired, every end is cleared
	Single
)

// String is the name of the mode used in settings files.
func (m EndMode) String() string {
	switch m {
	case End1:
		return "end-1"
	case End2:
		return "end-2"
	case Single:
		return "single"
	}
	return "mixed"
}

// ParseEndMode returns the EndMode with the name, see EndMode.String.
func ParseEndMode(s string) (EndMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mixed", "mixed-ends", "":
		return Mixed, nil
	case "end-1", "end1", "1":
		return End1, nil
	case "end-2", "end2", "2":
		return End2, nil
	case "single", "single-ends", "0":
		return Single, nil
	}
	return Mixed, fmt.Errorf("unknown end mode %q", s)
}

// Apply decides the name and end of a read from its header. Single reads
// keep their whole title as the name, suffix and all.
func (m EndMode) Apply(h Header) (name string, end End) {
	switch m {
	case Mixed:
		if h.parsed {
			return h.Name, h.End
		}
		return h.Raw, None
	case End1, End2:
		name = h.Raw
		if h.parsed {
			name = h.Name
		}
		if trimmed := strings.TrimRight(name, separators); trimmed != "" {
			name = trimmed
		}
		if m == End1 {
			return name, One
		}
		return name, Two
	}

	return h.Raw, None
}
