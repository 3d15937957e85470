package recorder

import (
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// timescale is the fMP4 track timescale; the agent's PTS values are
// microseconds, scaled down here rather than carried through as-is.
const timescale = 90000

// fileMuxer implements Muxer over github.com/Eyevinn/mp4ff, writing a
// fragmented MP4 (init segment followed by one moof+mdat per sample)
// directly to an output file. Isolated to this file so any future
// mp4ff API drift is contained to one place.
type fileMuxer struct {
	f             *os.File
	width, height uint32
	seq           uint32
	baseUs        uint64
	lastUs        uint64
}

// NewFileMuxer opens path for writing and returns a Muxer backed by it.
func NewFileMuxer(path string) (Muxer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: create output file: %w", err)
	}
	return &fileMuxer{f: f}, nil
}

func (m *fileMuxer) Init(sps, pps []byte) error {
	width, height := uint32(0), uint32(0)
	if info, err := avc.ParseSPSNALUnit(sps, true); err == nil {
		width, height = uint32(info.Width), uint32(info.Height)
	}
	m.width, m.height = width, height

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")

	trak := init.Moov.Trak
	stsd := trak.Mdia.Minf.Stbl.Stsd

	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return fmt.Errorf("recorder: create avcC box: %w", err)
	}
	entry := mp4.CreateVisualSampleEntryBox("avc1", uint16(m.width), uint16(m.height), avcC)
	stsd.AddChild(entry)

	return init.Encode(m.f)
}

func (m *fileMuxer) WriteSample(s Sample) error {
	m.seq++
	if m.seq == 1 {
		m.baseUs = s.PTS
	}
	decodeTime := (s.DTS - m.baseUs) * timescale / 1_000_000

	dur := uint32(3000)
	if m.lastUs > 0 && s.PTS > m.lastUs {
		if scaled := uint32((s.PTS - m.lastUs) * timescale / 1_000_000); scaled > 0 {
			dur = scaled
		}
	}
	m.lastUs = s.PTS

	frag, err := mp4.CreateFragment(m.seq, 1)
	if err != nil {
		return fmt.Errorf("recorder: create fragment: %w", err)
	}

	flags := mp4.NonSyncSampleFlags
	if s.KeyFrame {
		flags = mp4.SyncSampleFlags
	}
	frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: flags,
			Dur:   dur,
			Size:  uint32(len(s.Data)),
		},
		DecodeTime: decodeTime,
		Data:       s.Data,
	})

	return frag.Encode(m.f)
}

func (m *fileMuxer) Close() error {
	return m.f.Close()
}
