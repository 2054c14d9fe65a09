package media

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	beepmp3 "github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/hajimehoshi/go-mp3"

	perrors "github.com/tessro/prelisten/internal/errors"
)

// memFile is an in-memory track that decoders can seek in.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func decode(data []byte, format string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)
	switch format {
	case "mp3":
		s, f, err = beepmp3.Decode(memFile{bytes.NewReader(data)})
	case "wav":
		s, f, err = wav.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", perrors.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: decoding %s: %w", perrors.ErrLoadFailure, format, err)
	}
	return s, f, nil
}

// ProbeDurationFunc measures a track without decoding it for playback.
// Tests may replace it.
var ProbeDurationFunc = probeDuration

func probeDuration(r io.ReadSeeker, format string) (time.Duration, error) {
	switch format {
	case "mp3":
		dec, err := mp3.NewDecoder(r)
		if err != nil {
			return 0, fmt.Errorf("%w: mp3 header: %w", perrors.ErrLoadFailure, err)
		}
		// Length is in bytes of 16-bit stereo PCM.
		samples := dec.Length() / 4
		if samples <= 0 || dec.SampleRate() <= 0 {
			return 0, fmt.Errorf("%w: mp3 length unknown", perrors.ErrLoadFailure)
		}
		return time.Duration(samples) * time.Second / time.Duration(dec.SampleRate()), nil
	case "wav":
		s, f, err := wav.Decode(r)
		if err != nil {
			return 0, fmt.Errorf("%w: wav header: %w", perrors.ErrLoadFailure, err)
		}
		defer s.Close()
		return f.SampleRate.D(s.Len()), nil
	default:
		return 0, fmt.Errorf("%w: %s", perrors.ErrUnsupportedFormat, format)
	}
}
