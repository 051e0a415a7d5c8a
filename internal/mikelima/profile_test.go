package mikelima

import (
	"bytes"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// TestRunnerEmitsMessageThenPacket exercises the CompositeRunner seam
// end-to-end: one SOM+Packet+EOM stream should emit exactly one
// message_content record followed by one iq0_packet_content record.
func TestRunnerEmitsMessageThenPacket(t *testing.T) {
	data := buildMBLBStream(false)
	var emitted []string
	rn := runner{isIQ5: false}

	err := rn.Run(bytes.NewReader(data), profile.Options{}, func(sinkKey string, rec record.Record) error {
		emitted = append(emitted, sinkKey)
		if sinkKey == "message_content" && rec["message_key"] != "msg-0" {
			t.Fatalf("message_key = %v, want msg-0", rec["message_key"])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitted) != 2 || emitted[0] != "message_content" || emitted[1] != "iq0_packet_content" {
		t.Fatalf("emitted = %v, want [message_content iq0_packet_content]", emitted)
	}
}

func TestBothProfilesRegistered(t *testing.T) {
	if _, err := profile.Lookup("mikelima"); err != nil {
		t.Fatalf("Lookup(mikelima): %v", err)
	}
	if _, err := profile.Lookup("mikelima-iq5"); err != nil {
		t.Fatalf("Lookup(mikelima-iq5): %v", err)
	}
}
