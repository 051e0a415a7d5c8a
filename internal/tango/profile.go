package tango

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

func init() {
	profile.Register(profile.Descriptor{
		Name: "tango",
		NewFrameReader: func(r io.ReadSeeker, opts profile.Options) frame.Reader {
			return NewFrameReader(r, opts.Clean)
		},
		NewClassifier: func(_ profile.Options) profile.Classifier {
			return classifier{}
		},
		Schemas: map[string]record.Schema{
			"data":              SignalDataSchema,
			"context":           ContextSchema,
			"heartbeat_context": HeartbeatContextSchema,
			"gps_context":       GPSContextSchema,
		},
	})
}

type classifier struct{}

// wordsLE reinterprets a Tango payload (already little-endian on the
// wire, unlike Juliet's byte-swapped one) as 32-bit words.
func wordsLE(payload []byte) []uint32 {
	words := make([]uint32, len(payload)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
	}
	return words
}

// Classify dispatches on VRT packet_type and, for 0b0101, on the class
// id's information/packet class codes to distinguish Heartbeat- from
// GPS-Context (§4.7).
func (classifier) Classify(payload []byte) (profile.Decoded, error) {
	words := wordsLE(payload)
	p, err := vrt.NewPacket(words)
	if err != nil {
		return profile.Decoded{}, err
	}
	h := p.Header()
	cid := p.ClassID()

	switch {
	case h.PacketType == 0b0001:
		rec, err := DecodeSignalData(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "data", Record: rec, StreamID: p.StreamID(), IsSignalData: true}, nil

	case h.PacketType == 0b0100:
		rec, err := DecodeContext(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "context", Record: rec, StreamID: p.StreamID(), IsContext: true}, nil

	case h.PacketType == 0b0101 && cid.InformationClassCode == 1 && cid.PacketClassCode == 2:
		rec, err := DecodeHeartbeatContext(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "heartbeat_context", Record: rec, StreamID: p.StreamID()}, nil

	case h.PacketType == 0b0101 && cid.InformationClassCode == 3 && cid.PacketClassCode == 3:
		rec, err := DecodeGPSContext(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "gps_context", Record: rec, StreamID: p.StreamID()}, nil

	default:
		return profile.Decoded{SinkKey: "unknown_packets", Record: record.Record{
			"packet_type": h.PacketType,
		}}, fmt.Errorf("tango: unknown packet_type %#x (info_class=%d packet_class=%d)", h.PacketType, cid.InformationClassCode, cid.PacketClassCode)
	}
}
