package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"
)

// EdgeTTS synthesizes speech with Microsoft Edge's online voices.
// It needs no credential.
type EdgeTTS struct {
	voice   string
	timeout time.Duration
}

// NewEdgeTTS creates an EdgeTTS using voice as the default voice. timeout
// bounds each synthesis (default 30s).
func NewEdgeTTS(voice string, timeout time.Duration) *EdgeTTS {
	if voice == "" {
		voice = "en-US-AriaNeural"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EdgeTTS{voice: voice, timeout: timeout}
}

func (e *EdgeTTS) Name() string { return "edge" }

type edgeOutcome struct {
	audio []byte
	err   error
}

// Synthesize streams the text over the Edge websocket and returns the MP3
// chunks joined in order. ctx bounds the whole exchange, including the dial.
func (e *EdgeTTS) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := req.Voice
	if voice == "" {
		voice = e.voice
	}

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("edge tts init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan edgeOutcome, 1)
	go func() {
		ch, err := comm.Stream()
		if err != nil {
			done <- edgeOutcome{err: fmt.Errorf("edge tts stream: %w", err)}
			return
		}
		audio, err := collectEdgeAudio(ctx, ch, comm.AudioDataIndex)
		// The library never closes its output; closing it releases any
		// sender still blocked on a part we stopped reading.
		comm.CloseOutput()
		done <- edgeOutcome{audio: audio, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("edge tts: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return &Result{
			Audio:       out.audio,
			ContentType: ContentTypeMPEG,
		}, nil
	}
}

// collectEdgeAudio reads stream messages until every one of parts text
// segments has reported its end, then joins the audio by segment index.
func collectEdgeAudio(ctx context.Context, ch <-chan map[string]interface{}, parts int) ([]byte, error) {
	chunks := make(map[int][][]byte)
	ended := 0

	for ended < parts {
		var msg map[string]interface{}
		var ok bool
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok = <-ch:
			if !ok {
				return nil, errors.New("edge tts: stream closed early")
			}
		}

		if e, has := msg["error"]; has {
			return nil, fmt.Errorf("edge tts: %s", edgeErrorMessage(e))
		}
		if _, has := msg["end"]; has {
			ended++
			continue
		}
		if t, _ := msg["type"].(string); t == "audio" {
			if data, ok := msg["data"].(edge.AudioData); ok {
				chunks[data.Index] = append(chunks[data.Index], data.Data)
			}
		}
	}

	indexes := make([]int, 0, len(chunks))
	for idx := range chunks {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var buf bytes.Buffer
	for _, idx := range indexes {
		for _, c := range chunks[idx] {
			buf.Write(c)
		}
	}
	if buf.Len() == 0 {
		return nil, errors.New("edge tts: no audio received")
	}
	return buf.Bytes(), nil
}

func edgeErrorMessage(v interface{}) string {
	switch e := v.(type) {
	case edge.WebSocketError:
		return e.Message
	case edge.UnknownResponse:
		return e.Message
	case edge.UnexpectedResponse:
		return e.Message
	case edge.NoAudioReceived:
		return e.Message
	case error:
		return e.Error()
	default:
		return fmt.Sprint(v)
	}
}
