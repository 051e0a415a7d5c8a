package profile

import (
	"errors"
	"testing"
)

func TestLookupUnknownProfile(t *testing.T) {
	_, err := Lookup("not-a-real-profile")
	if err == nil || !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("error = %v, want wrapping ErrUnknownProfile", err)
	}
}

func TestRegisterAndLookupRoundTrip(t *testing.T) {
	Register(Descriptor{Name: "test-profile-roundtrip"})
	d, err := Lookup("test-profile-roundtrip")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if d.Name != "test-profile-roundtrip" {
		t.Fatalf("Name = %q, want test-profile-roundtrip", d.Name)
	}
}

func TestRegisterPanicsOnDuplicateName(t *testing.T) {
	Register(Descriptor{Name: "test-profile-dup"})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on duplicate registration")
		}
	}()
	Register(Descriptor{Name: "test-profile-dup"})
}

func TestRegisterPanicsOnEmptyName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on empty name registration")
		}
	}()
	Register(Descriptor{Name: ""})
}
