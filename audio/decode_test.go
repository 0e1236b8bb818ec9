package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeStereoWAV encodes a tiny two-channel PCM file directly with
// go-audio/wav, so Decode's WAV path can be exercised without shelling
// out to ffmpeg (which this environment may not have installed).
func writeStereoWAV(t *testing.T, path string) (left []int16) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 2, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:   []int{},
	}
	for i := 0; i < 100; i++ {
		l := i * 10
		r := -i * 10
		buf.Data = append(buf.Data, l, r)
		left = append(left, int16(l))
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	return left
}

func TestDecodeKeepsOnlyFirstChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")
	left := writeStereoWAV(t, path)

	samples, sampleRate, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sampleRate != 44100 {
		t.Fatalf("sampleRate = %d, want 44100", sampleRate)
	}
	if len(samples) != len(left) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(left))
	}
	for i := range left {
		if samples[i] != left[i] {
			t.Fatalf("samples[%d] = %d, want %d (right channel leaked in)", i, samples[i], left[i])
		}
	}
}

func TestDecodeMissingFile(t *testing.T) {
	if _, _, err := Decode(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected an error decoding a nonexistent file")
	}
}

func TestConvertToWAVMissingInput(t *testing.T) {
	if _, err := ConvertToWAV(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatal("expected an error converting a nonexistent input file")
	}
}

func TestDecodeRejectsNon16BitPCM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "24bit.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	enc := wav.NewEncoder(f, 44100, 24, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:   []int{100, 200, 300},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	f.Close()

	if _, _, err := Decode(path); err == nil {
		t.Fatal("expected Decode to reject 24-bit PCM with InputError")
	}
}
