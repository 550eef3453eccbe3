package voice

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/sysutil"
)

// Sample rates fixed by the Live API.
const (
	CaptureSampleRate  = 16000
	PlaybackSampleRate = 24000
)

// CaptureMIMEType labels outbound audio chunks.
var CaptureMIMEType = "audio/pcm;rate=" + strconv.Itoa(CaptureSampleRate)

// EncodePCM16 quantizes samples in [-1, 1] to little-endian int16. Values
// outside the range are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := float64(s)
		switch {
		case math.IsNaN(v):
			v = 0
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*32767))))
	}
	return out
}

// DecodePCM16 converts little-endian int16 PCM back to samples in [-1, 1].
func DecodePCM16(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("%w: odd PCM16 length %d", ErrProtocol, len(b))
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(b[2*i:]))) / 32767
	}
	return out, nil
}

// Duration is the playback length of n bytes of mono PCM16 at rate Hz.
func Duration(n, rate int) time.Duration {
	if rate <= 0 || n <= 0 {
		return 0
	}
	samples := int64(n / 2)
	return time.Duration(samples * int64(time.Second) / int64(rate))
}

// ---- client messages ----

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type setup struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type audioBlob struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type realtimeInput struct {
	Audio          *audioBlob `json:"audio,omitempty"`
	AudioStreamEnd bool       `json:"audioStreamEnd,omitempty"`
}

// SetupOptions are the session parameters sent in the handshake.
type SetupOptions struct {
	Model             string
	SystemInstruction string
	VoiceName         string // prebuilt voice; empty keeps the server default
	Transcribe        bool   // ask for input and output transcriptions
}

// SetupMessage builds the first client frame.
func SetupMessage(o SetupOptions) ([]byte, error) {
	model := strings.TrimSpace(o.Model)
	if model == "" {
		return nil, fmt.Errorf("voice: setup without model")
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	s := setup{
		Model:            model,
		GenerationConfig: generationConfig{ResponseModalities: []string{"AUDIO"}},
	}
	if o.VoiceName != "" {
		s.GenerationConfig.SpeechConfig = &speechConfig{VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: o.VoiceName}}}
	}
	if si := strings.TrimSpace(o.SystemInstruction); si != "" {
		s.SystemInstruction = &content{Parts: []part{{Text: si}}}
	}
	if o.Transcribe {
		s.InputAudioTranscription = &struct{}{}
		s.OutputAudioTranscription = &struct{}{}
	}
	return json.Marshal(struct {
		Setup setup `json:"setup"`
	}{s})
}

// AudioMessage wraps captured samples in a realtime input frame.
func AudioMessage(samples []float32) ([]byte, error) {
	return json.Marshal(struct {
		RealtimeInput realtimeInput `json:"realtimeInput"`
	}{realtimeInput{Audio: &audioBlob{
		Data:     base64.StdEncoding.EncodeToString(EncodePCM16(samples)),
		MIMEType: CaptureMIMEType,
	}}})
}

// AudioStreamEndMessage tells the server no more audio follows.
func AudioStreamEndMessage() []byte {
	return []byte(`{"realtimeInput":{"audioStreamEnd":true}}`)
}

// ---- server events ----

// Event is one decoded server occurrence. The concrete types are SetupAck,
// Audio, Text, TurnComplete, Interrupted and Error.
type Event interface{ event() }

// Speaker attributes a transcript fragment.
type Speaker string

const (
	SpeakerUser      Speaker = "USER"
	SpeakerAssistant Speaker = "ASSISTANT"
)

// SetupAck acknowledges the setup handshake.
type SetupAck struct{}

// Audio is a chunk of PCM16 mono audio to play.
type Audio struct {
	PCM        []byte
	SampleRate int
}

// Text is a transcript fragment.
type Text struct {
	Speaker Speaker
	Text    string
}

// TurnComplete marks the end of a model turn.
type TurnComplete struct{}

// Interrupted reports that the user barged in; queued playback is stale.
type Interrupted struct{}

// Error is a server-reported failure.
type Error struct {
	Message string
}

func (SetupAck) event()     {}
func (Audio) event()        {}
func (Text) event()         {}
func (TurnComplete) event() {}
func (Interrupted) event()  {}
func (Error) event()        {}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type serverPart struct {
	Text       string      `json:"text"`
	InlineData *inlineData `json:"inlineData"`
}

type transcription struct {
	Text string `json:"text"`
}

type serverMessage struct {
	SetupComplete json.RawMessage `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []serverPart `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete        bool           `json:"turnComplete"`
		Interrupted         bool           `json:"interrupted"`
		InputTranscription  *transcription `json:"inputTranscription"`
		OutputTranscription *transcription `json:"outputTranscription"`
	} `json:"serverContent"`
	Error json.RawMessage `json:"error"`
}

// Decode turns one server frame into events, in the order they should be
// applied. Error frames come in several shapes ({"error":{"message":..}},
// {"error":"..."}); all become Error. A frame that is not JSON is an
// ErrProtocol error. Unknown fields are ignored.
func Decode(raw []byte) ([]Event, error) {
	var m serverMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	if msg, ok := errorMessage(m.Error); ok {
		return []Event{Error{Message: msg}}, nil
	}

	var out []Event
	if present(m.SetupComplete) {
		out = append(out, SetupAck{})
	}
	sc := m.ServerContent
	if sc == nil {
		return out, nil
	}
	if sc.Interrupted {
		out = append(out, Interrupted{})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		out = append(out, Text{Speaker: SpeakerUser, Text: sc.InputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			switch {
			case p.InlineData != nil && p.InlineData.Data != "":
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("%w: audio payload: %v", ErrProtocol, err)
				}
				out = append(out, Audio{PCM: pcm, SampleRate: sampleRate(p.InlineData.MIMEType)})
			case p.Text != "":
				out = append(out, Text{Speaker: SpeakerAssistant, Text: p.Text})
			}
		}
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		out = append(out, Text{Speaker: SpeakerAssistant, Text: sc.OutputTranscription.Text})
	}
	if sc.TurnComplete {
		out = append(out, TurnComplete{})
	}
	return out, nil
}

// present reports whether a raw field was sent with a non-null, non-false value.
func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "false"
}

func errorMessage(raw json.RawMessage) (string, bool) {
	if !present(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return orUnknown(s), true
	}
	var obj struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return orUnknown(sysutil.FirstNonEmpty(obj.Message, obj.Status)), true
	}
	return orUnknown(string(raw)), true
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown error"
	}
	return s
}

// sampleRate reads rate=N from a MIME type like "audio/pcm;rate=24000".
func sampleRate(mime string) int {
	for _, p := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "rate") {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return PlaybackSampleRate
}
