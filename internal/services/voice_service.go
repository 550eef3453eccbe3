package services

import (
	"net/url"
	"strings"
)

// VoiceDescriptor tells a client where to open its live audio socket. WSURL
// embeds a credential; clients use it for one session and never cache it.
type VoiceDescriptor struct {
	WSURL string `json:"wsUrl"`
	Model string `json:"model"`
}

// VoiceService hands out live-session descriptors so that browsers and the
// voice CLI never hold the Gemini key in their own configuration.
type VoiceService struct {
	Endpoint string
	Model    string
	APIKeys  []string
}

// Descriptor returns the session descriptor using the first configured key.
func (s *VoiceService) Descriptor() (VoiceDescriptor, error) {
	key := ""
	for _, k := range s.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			key = k
			break
		}
	}
	if key == "" || s.Endpoint == "" || s.Model == "" {
		return VoiceDescriptor{}, ErrVoiceUnavailable
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return VoiceDescriptor{}, ErrVoiceUnavailable
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return VoiceDescriptor{WSURL: u.String(), Model: s.Model}, nil
}
