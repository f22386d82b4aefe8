// Package seq is for reading sequence read archive files (FASTA or FASTQ)
// into Records with the mate (end) of each read.
package seq

import (
	"fmt"
	"strings"
)

// End is which mate of a paired read a Record is.
type End uint8

const (
	// None is an unpaired read or a read without an end suffix
	None End = iota

	// One is the first mate of a pair
	One

	// Two is the second mate of a pair
	Two
)

// String returns the suffix form of the end: "", "1" or "2".
func (e End) String() string {
	switch e {
	case One:
		return "1"
	case Two:
		return "2"
	}
	return ""
}

// ParseEnd is the reverse of End.String.
func ParseEnd(s string) (End, error) {
	switch s {
	case "":
		return None, nil
	case "1":
		return One, nil
	case "2":
		return Two, nil
	}
	return None, fmt.Errorf("unknown sequence end %q", s)
}

// Record is a single read. It is not modified after it's read.
type Record struct {
	// Name is the read's id without the end suffix
	Name string

	// End is the mate of the read
	End End

	// Seq is the read's residues, unwrapped
	Seq string
}

// Title is the FASTA title of the record, >name/end without the '>'.
func (r Record) Title() string {
	if r.End == None {
		return r.Name
	}
	return r.Name + "/" + r.End.String()
}

// FASTA returns the record as a two line FASTA entry.
func (r Record) FASTA() string {
	var b strings.Builder
	b.Grow(len(r.Name) + len(r.Seq) + 5)
	b.WriteByte('>')
	b.WriteString(r.Title())
	b.WriteByte('\n')
	b.WriteString(r.Seq)
	b.WriteByte('\n')
	return b.String()
}
