package metadata

import (
	"errors"
	"fmt"
	"io"
	"time"

	"fotoboek/internal/filesystem"

	"github.com/abema/go-mp4"
)

// mp4EpochOffset is the number of seconds between 1904-01-01 (the ISO base
// media epoch) and 1970-01-01.
const mp4EpochOffset = 2082844800

var videoHandler = [4]byte{'v', 'i', 'd', 'e'}

// ErrNoVideoTrack is returned for containers without a video track header
// to read the frame size from.
var ErrNoVideoTrack = errors.New("no video track")

// VideoAnalyzer reads creation time and duration from moov/mvhd and the
// frame size from the first video track header.
type VideoAnalyzer struct {
	baseAnalyzer
	created  *time.Time
	duration *float64
}

// NewVideoAnalyzer parses the ISO base media container at path.
func NewVideoAnalyzer(path string) (*VideoAnalyzer, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a := &VideoAnalyzer{baseAnalyzer: newBaseAnalyzer(path)}
	if err := a.readMovieHeader(f); err != nil {
		return nil, fmt.Errorf("failed to parse video container %s: %w", path, err)
	}
	if err := a.readVideoTrack(f); err != nil {
		return nil, fmt.Errorf("failed to parse video tracks %s: %w", path, err)
	}
	return a, nil
}

func (a *VideoAnalyzer) readMovieHeader(r io.ReadSeeker) error {
	boxes, err := mp4.ExtractBoxWithPayload(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return err
	}
	if len(boxes) == 0 {
		return fmt.Errorf("no moov/mvhd box")
	}
	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return fmt.Errorf("unexpected mvhd payload %T", boxes[0].Payload)
	}

	var created, duration uint64
	if mvhd.GetVersion() == 0 {
		created, duration = uint64(mvhd.CreationTimeV0), uint64(mvhd.DurationV0)
	} else {
		created, duration = mvhd.CreationTimeV1, mvhd.DurationV1
	}

	if unix := int64(created) - mp4EpochOffset; created > mp4EpochOffset && unix > 0 {
		t := time.Unix(unix, 0).UTC()
		a.created = &t
	}
	if mvhd.Timescale > 0 {
		d := float64(duration) / float64(mvhd.Timescale)
		a.duration = &d
	}
	return nil
}

func (a *VideoAnalyzer) readVideoTrack(r io.ReadSeeker) error {
	traks, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak()})
	if err != nil {
		return err
	}

	for _, trak := range traks {
		hdlrs, err := mp4.ExtractBoxWithPayload(r, trak, mp4.BoxPath{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()})
		if err != nil {
			return err
		}
		if len(hdlrs) == 0 {
			continue
		}
		if hdlr, ok := hdlrs[0].Payload.(*mp4.Hdlr); !ok || hdlr.HandlerType != videoHandler {
			continue
		}

		tkhds, err := mp4.ExtractBoxWithPayload(r, trak, mp4.BoxPath{mp4.BoxTypeTkhd()})
		if err != nil {
			return err
		}
		if len(tkhds) == 0 {
			continue
		}
		tkhd, ok := tkhds[0].Payload.(*mp4.Tkhd)
		if !ok {
			return fmt.Errorf("unexpected tkhd payload %T", tkhds[0].Payload)
		}
		// Track dimensions are 16.16 fixed point.
		a.width = int(tkhd.Width >> 16)
		a.height = int(tkhd.Height >> 16)
		return nil
	}
	return ErrNoVideoTrack
}

// CreationDate is the mvhd creation time. Containers written without one
// carry zero, which is reported as unknown.
func (a *VideoAnalyzer) CreationDate() *time.Time {
	return a.created
}

func (a *VideoAnalyzer) Duration() *float64 {
	return a.duration
}
