package model

import (
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{in: "install", want: EventInstall},
		{in: "config-changed", want: EventConfigChanged},
		{in: "hooks/install", want: EventInstall},
		{in: "/var/lib/juju/agents/unit-controller-0/charm/hooks/config-changed", want: EventConfigChanged},
		{in: " install\n", want: EventInstall},
		{in: "start", wantErr: true},
		{in: "upgrade-charm", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvent(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEvent) {
					t.Fatalf("expected ErrUnknownEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusString(t *testing.T) {
	if got := ActiveStatus("Ready").String(); got != "active: Ready" {
		t.Errorf("got %q", got)
	}
	if got := (Status{Kind: StatusWaiting}).String(); got != "waiting" {
		t.Errorf("got %q", got)
	}
}
