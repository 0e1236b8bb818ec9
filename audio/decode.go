// Package audio turns arbitrary input audio files into the mono int16
// PCM buffers the fingerprint pipeline (C1) expects, shelling out to
// ffmpeg for format conversion and decoding the resulting WAV with
// go-audio/wav.
package audio

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"landmarkfp/errs"
	"landmarkfp/utils"
)

const stage = "audio"

// Decode reads path, converting it to WAV first if it isn't already
// one, and returns its first channel's samples at its native sample
// rate. Multi-channel input is never averaged down: only channel 0 is
// kept, matching the fingerprint algorithm's single-channel contract.
func Decode(path string) ([]int16, int, error) {
	wavPath := path
	if filepath.Ext(path) != ".wav" {
		converted, err := ConvertToWAV(path)
		if err != nil {
			return nil, 0, errs.Wrap(stage, errs.InputError, err)
		}
		wavPath = converted
		defer os.Remove(wavPath)
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, 0, errs.Wrap(stage, errs.InputError, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, errs.Wrap(stage, errs.InputError, fmt.Errorf("%s is not a valid WAV file", wavPath))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, errs.Wrap(stage, errs.InputError, fmt.Errorf("decoding %s: %w", wavPath, err))
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errs.Wrap(stage, errs.InputError, fmt.Errorf("%s decoded to an empty buffer", wavPath))
	}
	if decoder.BitDepth != 16 {
		return nil, 0, errs.Wrap(stage, errs.InputError, fmt.Errorf("%s is %d-bit PCM, only 16-bit is supported", wavPath, decoder.BitDepth))
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	samples := make([]int16, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, int16(buf.Data[i]))
	}

	return samples, buf.Format.SampleRate, nil
}

// ConvertToWAV converts an input audio file to 16-bit PCM mono WAV at
// 44100Hz via ffmpeg.
func ConvertToWAV(inputFilePath string) (string, error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", fmt.Errorf("input file does not exist: %w", err)
	}

	fileExt := filepath.Ext(inputFilePath)
	outputFile := strings.TrimSuffix(inputFilePath, fileExt) + ".wav"

	tmpFile := filepath.Join(filepath.Dir(outputFile), "tmp_"+filepath.Base(outputFile))
	defer os.Remove(tmpFile)

	cmd := exec.Command(
		"ffmpeg", "-y",
		"-i", inputFilePath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", "1",
		tmpFile,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg conversion failed: %w, output: %s", err, output)
	}

	if err := utils.MoveFile(tmpFile, outputFile); err != nil {
		return "", fmt.Errorf("renaming temp file to %s: %w", outputFile, err)
	}

	return outputFile, nil
}
