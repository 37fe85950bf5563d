package follow

import "testing"

func TestAccumulator_Advance(t *testing.T) {
	acc := NewAccumulator()
	if acc.Text() != "" || acc.BytesRead() != 0 {
		t.Fatalf("fresh accumulator: %q, %d", acc.Text(), acc.BytesRead())
	}

	acc.Advance("hello ", 6)
	acc.Advance("world", 11)
	if acc.Text() != "hello world" {
		t.Errorf("text = %q", acc.Text())
	}
	if acc.BytesRead() != 11 {
		t.Errorf("bytes read = %d", acc.BytesRead())
	}
}

func TestAccumulator_BytesReadNeverRegresses(t *testing.T) {
	acc := NewAccumulator()
	acc.Advance("abcdef", 6)
	acc.Advance("", 3)
	if acc.BytesRead() != 6 {
		t.Errorf("bytes read = %d", acc.BytesRead())
	}
}
