package juliet

import (
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/vrt"
)

func init() {
	profile.Register(profile.Descriptor{
		Name: "juliet",
		NewFrameReader: func(r io.ReadSeeker, _ profile.Options) frame.Reader {
			return NewFrameReader(r)
		},
		NewClassifier: func(_ profile.Options) profile.Classifier {
			return classifier{}
		},
		Schemas: map[string]record.Schema{
			"data":              SignalDataSchema,
			"context_data":      DataContextSchema,
			"extension_command": ExtensionCommandSchema,
			"ackr":              AckRSchema,
		},
	})
}

type classifier struct{}

// Classify dispatches on VRT packet_type/indicators, per §4.7's dispatch
// table: packet_type 0b0001 is Signal-Data, 0b0101 is Data-Context,
// 0b0111 with indicators 0b0000 is Extension-Command, 0b0111 with
// indicators 0b0100 is AckR.
func (classifier) Classify(payload []byte) (profile.Decoded, error) {
	words := WordsOf(payload)
	p, err := vrt.NewPacket(words)
	if err != nil {
		return profile.Decoded{}, err
	}
	h := p.Header()

	switch {
	case h.PacketType == 0b0001:
		rec, err := DecodeSignalData(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "data", Record: rec, StreamID: p.StreamID(), IsSignalData: true}, nil

	case h.PacketType == 0b0101:
		rec, err := DecodeDataContext(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "context_data", Record: rec, StreamID: p.StreamID(), IsContext: true}, nil

	case h.PacketType == 0b0111 && h.Indicators == 0b0000:
		rec, err := DecodeExtensionCommand(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "extension_command", Record: rec, StreamID: p.StreamID()}, nil

	case h.PacketType == 0b0111 && h.Indicators == 0b0100:
		rec, err := DecodeAckR(p)
		if err != nil {
			return profile.Decoded{}, err
		}
		return profile.Decoded{SinkKey: "ackr", Record: rec, StreamID: p.StreamID()}, nil

	default:
		return profile.Decoded{SinkKey: "unknown_packets", Record: record.Record{
			"packet_type": h.PacketType,
			"indicators":  h.Indicators,
		}}, fmt.Errorf("juliet: unknown packet_type %#x indicators %#x", h.PacketType, h.Indicators)
	}
}
