package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/tts"
)

// fakeServer accepts one connection, records the synthesize event and replies
// with the given events.
func fakeServer(t *testing.T, reply func(conn net.Conn)) (addr string, got chan *event) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	got = make(chan *event, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		evt, _, err := readEvent(bufio.NewReader(conn))
		if err != nil {
			return
		}
		got <- evt
		reply(conn)
	}()
	return ln.Addr().String(), got
}

func TestSynthesize(t *testing.T) {
	addr, got := fakeServer(t, func(conn net.Conn) {
		writeEvent(conn, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}}, nil)
		writeEvent(conn, event{Type: "audio-chunk"}, []byte{1, 2})
		writeEvent(conn, event{Type: "audio-chunk"}, []byte{3, 4})
		writeEvent(conn, event{Type: "audio-stop"}, nil)
	})

	s := New(config.PiperConfig{Endpoint: "tcp://" + addr})
	res, err := s.Synthesize(context.Background(), "नमस्ते", tts.SynthesizeOpts{Language: "hi"})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	req := <-got
	if req.Type != "synthesize" || req.Data["text"] != "नमस्ते" {
		t.Errorf("unexpected request: %+v", req)
	}
	if voice, _ := req.Data["voice"].(map[string]any); voice["name"] != "hi_IN-pratham-medium" {
		t.Errorf("hindi voice not selected: %v", req.Data["voice"])
	}

	if res.ContentType != "audio/wav" {
		t.Errorf("unexpected content type: %s", res.ContentType)
	}
	if !bytes.HasPrefix(res.Audio, []byte("RIFF")) || len(res.Audio) != 44+4 {
		t.Fatalf("unexpected wav: % x", res.Audio)
	}
	if rate := binary.LittleEndian.Uint32(res.Audio[24:28]); rate != 16000 {
		t.Errorf("sample rate not taken from audio-start: %d", rate)
	}
	if !bytes.Equal(res.Audio[44:], []byte{1, 2, 3, 4}) {
		t.Errorf("pcm not concatenated in order: % x", res.Audio[44:])
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	addr, _ := fakeServer(t, func(conn net.Conn) {
		writeEvent(conn, event{Type: "error", Data: map[string]any{"text": "voice not installed"}}, nil)
	})

	s := New(config.PiperConfig{Endpoint: addr})
	if _, err := s.Synthesize(context.Background(), "hello", tts.SynthesizeOpts{Language: "en"}); err == nil {
		t.Error("expected error event to fail synthesis")
	}
}

func TestSynthesize_NoVoice(t *testing.T) {
	s := New(config.PiperConfig{Endpoint: "localhost:1"})
	if _, err := s.Synthesize(context.Background(), "ವಂದನೆ", tts.SynthesizeOpts{Language: "kn"}); err == nil {
		t.Error("kannada has no default voice and should fail")
	}
}

func TestNew_Overrides(t *testing.T) {
	s := New(config.PiperConfig{
		Endpoint:  "shared:10200",
		Endpoints: map[string]string{"ta": "tcp://tamil:10200"},
		Voices:    map[string]string{"ta": "ta_IN-custom-medium"},
	})
	if s.endpoints["ta"] != "tamil:10200" {
		t.Errorf("per-language endpoint not cleaned: %q", s.endpoints["ta"])
	}
	if s.voices["ta"] != "ta_IN-custom-medium" || s.voices["hi"] == "" {
		t.Errorf("voices not merged: %v", s.voices)
	}
}

func TestEmptyText(t *testing.T) {
	s := New(config.PiperConfig{Endpoint: "localhost:1"})
	if _, err := s.Synthesize(context.Background(), "", tts.SynthesizeOpts{Language: "en"}); err == nil {
		t.Error("empty text should be rejected")
	}
}
