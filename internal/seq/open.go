package seq

import (
	"bufio"
	"io"
	"os"
	"unicode"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// sniffSize is how far into a file to look for its first title
const sniffSize = 1 << 12

// File is a Reader over a sequence read archive file on the local FS.
type File struct {
	*Reader

	// Path to the file
	Path string

	closers []io.Closer
}

// Open a FASTA or FASTQ file for reading, decompressing it if it's gzipped.
// The format comes from the file's extension or, failing that, its first title.
func Open(path string, mode EndMode) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	file := &File{Path: path, closers: []io.Closer{f}}

	var src io.Reader = bufio.NewReaderSize(f, 1<<16)
	if magic, _ := src.(*bufio.Reader).Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := pgzip.NewReader(src)
		if err != nil {
			file.Close()
			return nil, errors.Wrapf(err, "failed to decompress %s", path)
		}
		file.closers = append([]io.Closer{zr}, file.closers...)
		src = bufio.NewReaderSize(zr, 1<<16)
	}

	br := src.(*bufio.Reader)
	format, ok := FormatOf(path)
	if !ok {
		if format, err = sniff(br); err != nil {
			file.Close()
			return nil, errors.Wrapf(err, "failed to detect the format of %s", path)
		}
	}

	file.Reader = NewReader(br, format, mode)
	return file, nil
}

// Read returns the next record in the file, see Reader.Read.
func (f *File) Read() (Record, error) {
	rec, err := f.Reader.Read()
	if err != nil && err != io.EOF {
		return rec, errors.Wrapf(err, "failed to read %s", f.Path)
	}
	return rec, err
}

// Close the file and any decompressor over it.
func (f *File) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	f.closers = nil
	return first
}

// sniff returns the format from the first non-blank byte of the text.
func sniff(br *bufio.Reader) (Format, error) {
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return FASTA, err
	}

	for _, b := range head {
		if unicode.IsSpace(rune(b)) {
			continue
		}
		switch b {
		case '>':
			return FASTA, nil
		case '@':
			return FASTQ, nil
		}
		return FASTA, errors.Errorf("unexpected first character %q, not FASTA or FASTQ", b)
	}

	return FASTA, errors.New("no sequences found")
}
