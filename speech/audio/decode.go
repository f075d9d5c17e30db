package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// go-mp3 always emits 16-bit little-endian stereo.
const (
	decodedChannels       = 2
	decodedBytesPerSample = 2
)

// MP3Decoder decodes backend MP3 bytes into playable PCM.
type MP3Decoder struct{}

// Decode converts MP3 data into 16-bit PCM, failing with a
// speech.DecodeError on malformed or unsupported input.
func (MP3Decoder) Decode(raw []byte) (*speech.Audio, error) {
	if len(raw) == 0 {
		return nil, &speech.DecodeError{Err: fmt.Errorf("empty audio payload")}
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, &speech.DecodeError{Err: err}
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, &speech.DecodeError{Err: err}
	}
	if len(pcm) == 0 {
		return nil, &speech.DecodeError{Err: fmt.Errorf("decoded to zero samples")}
	}

	bytesPerSecond := dec.SampleRate() * decodedChannels * decodedBytesPerSample
	return &speech.Audio{
		PCM:        pcm,
		SampleRate: dec.SampleRate(),
		Channels:   decodedChannels,
		Duration:   time.Duration(float64(len(pcm)) / float64(bytesPerSecond) * float64(time.Second)),
	}, nil
}

var _ speech.Decoder = MP3Decoder{}
