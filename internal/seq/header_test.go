package seq

import (
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantParsed bool
		wantName   string
		wantEnd    End
		wantRaw    string
	}{
		{
			"slash suffix",
			">DBRHHJN1:427:H9YYAADXX:1:1101:10001:77019/1\n",
			true,
			"DBRHHJN1:427:H9YYAADXX:1:1101:10001:77019",
			One,
			"DBRHHJN1:427:H9YYAADXX:1:1101:10001:77019/1",
		},
		{
			"dot suffix",
			"@read.2",
			true,
			"read",
			Two,
			"read.2",
		},
		{
			"underscore suffix",
			">read_1",
			true,
			"read",
			One,
			"read_1",
		},
		{
			"space suffix",
			">read 2\r\n",
			true,
			"read",
			Two,
			"read 2",
		},
		{
			"no suffix",
			">read",
			false,
			"",
			None,
			"read",
		},
		{
			"suffix that isn't an end",
			">read/3",
			false,
			"",
			None,
			"read/3",
		},
		{
			"suffix without a separator",
			">read1",
			false,
			"",
			None,
			"read1",
		},
		{
			"only a suffix",
			">/1",
			false,
			"",
			None,
			"/1",
		},
		{
			"empty title",
			">",
			false,
			"",
			None,
			">",
		},
		{
			"leading space after marker",
			">  read/2",
			true,
			"read",
			Two,
			"read/2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ParseHeader(tt.line)
			if h.Parsed() != tt.wantParsed {
				t.Errorf("ParseHeader().Parsed() = %v, want %v", h.Parsed(), tt.wantParsed)
			}
			if h.Name != tt.wantName || h.End != tt.wantEnd || h.Raw != tt.wantRaw {
				t.Errorf("ParseHeader() = (%q, %v, %q), want (%q, %v, %q)", h.Name, h.End, h.Raw, tt.wantName, tt.wantEnd, tt.wantRaw)
			}
		})
	}
}

func TestEndMode_Apply(t *testing.T) {
	tests := []struct {
		name     string
		mode     EndMode
		line     string
		wantName string
		wantEnd  End
	}{
		{"mixed parsed", Mixed, ">a/1", "a", One},
		{"mixed second mate", Mixed, ">a/2", "a", Two},
		{"mixed unparsed", Mixed, ">b", "b", None},
		{"mixed malformed", Mixed, ">b/x", "b/x", None},
		{"end 1 forced over suffix", End1, ">a/2", "a", One},
		{"end 1 without suffix", End1, ">a", "a", One},
		{"end 1 trailing separator", End1, ">a_", "a", One},
		{"end 2 forced", End2, ">a.1", "a", Two},
		{"end 2 without suffix", End2, ">a", "a", Two},
		{"single clears end, keeps the title", Single, ">a/1", "a/1", None},
		{"single without suffix", Single, ">a", "a", None},
		{"single keeps distinct reads apart", Single, ">SRR1.2", "SRR1.2", None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotEnd := tt.mode.Apply(ParseHeader(tt.line))
			if gotName != tt.wantName || gotEnd != tt.wantEnd {
				t.Errorf("%v.Apply() = (%q, %v), want (%q, %v)", tt.mode, gotName, gotEnd, tt.wantName, tt.wantEnd)
			}
		})
	}
}

func TestParseEndMode(t *testing.T) {
	for _, m := range []EndMode{Mixed, End1, End2, Single} {
		got, err := ParseEndMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseEndMode(%q) = %v, %v, want %v", m.String(), got, err, m)
		}
	}

	if _, err := ParseEndMode("triple"); err == nil {
		t.Error("ParseEndMode(triple) should fail")
	}
}
