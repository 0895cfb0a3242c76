package directive

import "testing"

func TestChunkDecoder_SplitSequences(t *testing.T) {
	in := []byte("\uFEFFa✓é\U0001F600b")
	for size := 1; size <= len(in); size++ {
		d := newChunkDecoder()
		var out []byte
		for off := 0; off < len(in); off += size {
			end := min(off+size, len(in))
			var err error
			out, err = d.decode(out, in[off:end])
			if err != nil {
				t.Fatalf("size=%d: %v", size, err)
			}
		}
		if got := string(out); got != string(in) {
			t.Fatalf("size=%d: got %q", size, got)
		}
		if len(d.pending) != 0 {
			t.Fatalf("size=%d: %d bytes left pending", size, len(d.pending))
		}
	}
}

func TestChunkDecoder_NoHoldBack(t *testing.T) {
	d := newChunkDecoder()
	for _, c := range []string{"x", "/", "\xef"} {
		out, err := d.decode(nil, []byte(c))
		if err != nil {
			t.Fatal(err)
		}
		if c == "\xef" {
			if len(out) != 0 || len(d.pending) != 1 {
				t.Fatalf("%q: got %q with %d pending", c, out, len(d.pending))
			}
			continue
		}
		if string(out) != c || len(d.pending) != 0 {
			t.Fatalf("%q: got %q with %d pending", c, out, len(d.pending))
		}
	}
}

func TestChunkDecoder_Invalid(t *testing.T) {
	d := newChunkDecoder()
	out, err := d.decode(nil, []byte("a\xffb"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "a\uFFFDb" {
		t.Fatalf("got %q", out)
	}
}

func TestChunkDecoder_HoldsIncompleteTail(t *testing.T) {
	d := newChunkDecoder()
	out, err := d.decode(nil, []byte("x\xe2\x9c"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "x" || len(d.pending) != 2 {
		t.Fatalf("got %q with %d pending", out, len(d.pending))
	}
	out, err = d.decode(out, []byte("\x93"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "x✓" {
		t.Fatalf("got %q", out)
	}
}
