package audio

import (
	"errors"
	"testing"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

// TestDecodeRejectsBadInput tests the DecodeError paths.
func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty payload", nil},
		{"garbage bytes", []byte("this is not an mp3 stream at all")},
	}

	var dec MP3Decoder
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dec.Decode(tt.raw)
			var decodeErr *speech.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("Decode() err = %v, want DecodeError", err)
			}
		})
	}
}

// TestMockPlayerContract tests the completion-channel contract the
// engine relies on: natural completion closes it, stop does not.
func TestMockPlayerContract(t *testing.T) {
	p := NewMockPlayer()
	done, err := p.Play(&speech.Audio{}, 0)
	if err != nil {
		t.Fatalf("Play error: %v", err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() should be true after Play")
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	select {
	case <-done:
		t.Fatal("done channel must stay open after Stop")
	default:
	}

	done2, err := p.Play(&speech.Audio{}, 0)
	if err != nil {
		t.Fatalf("second Play error: %v", err)
	}
	p.FinishCurrent()
	select {
	case <-done2:
	default:
		t.Fatal("done channel should close on natural completion")
	}
}
