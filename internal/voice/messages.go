package voice

import (
	"errors"

	"golang.org/x/text/language"
)

var (
	supported = []language.Tag{language.Uzbek, language.Russian, language.English}
	matcher   = language.NewMatcher(supported)
)

type msgKey int

const (
	msgBusy msgKey = iota
	msgDescriptor
	msgDenied
	msgMicBusy
	msgRemoteClosed
	msgRemoteError
	msgGeneric
)

var catalog = map[language.Tag]map[msgKey]string{
	language.Uzbek: {
		msgBusy:         "Ovozli suhbat allaqachon davom etmoqda.",
		msgDescriptor:   "Ovozli yordamchiga ulanib bo'lmadi. Keyinroq urinib ko'ring.",
		msgDenied:       "Mikrofonga ruxsat berilmadi.",
		msgMicBusy:      "Mikrofon boshqa dastur tomonidan band.",
		msgRemoteClosed: "Ovozli suhbat server tomonidan yakunlandi.",
		msgRemoteError:  "Ovozli yordamchi xatosi: ",
		msgGeneric:      "Aloqa uzildi. Qayta urinib ko'ring.",
	},
	language.Russian: {
		msgBusy:         "Голосовой чат уже идёт.",
		msgDescriptor:   "Не удалось подключиться к голосовому помощнику. Попробуйте позже.",
		msgDenied:       "Доступ к микрофону запрещён.",
		msgMicBusy:      "Микрофон занят другим приложением.",
		msgRemoteClosed: "Сервер завершил голосовой чат.",
		msgRemoteError:  "Ошибка голосового помощника: ",
		msgGeneric:      "Соединение прервано. Попробуйте ещё раз.",
	},
	language.English: {
		msgBusy:         "A voice chat is already running.",
		msgDescriptor:   "Could not reach the voice assistant. Try again later.",
		msgDenied:       "Microphone permission was denied.",
		msgMicBusy:      "The microphone is in use by another application.",
		msgRemoteClosed: "The server ended the voice chat.",
		msgRemoteError:  "Voice assistant error: ",
		msgGeneric:      "Connection lost. Please try again.",
	},
}

// Message returns the text shown to the user for a session error, in lang
// (a BCP 47 tag such as "uz", "ru" or "en-US"; Uzbek when unmatched). A nil
// error yields "".
func Message(err error, lang string) string {
	if err == nil {
		return ""
	}
	msgs := catalog[match(lang)]
	var re *RemoteError
	switch {
	case errors.Is(err, ErrBusy):
		return msgs[msgBusy]
	case errors.Is(err, ErrDescriptor):
		return msgs[msgDescriptor]
	case errors.Is(err, ErrMicrophoneDenied):
		return msgs[msgDenied]
	case errors.Is(err, ErrMicrophoneBusy):
		return msgs[msgMicBusy]
	case errors.Is(err, ErrRemoteClosed):
		return msgs[msgRemoteClosed]
	case errors.As(err, &re):
		return msgs[msgRemoteError] + re.Message
	}
	return msgs[msgGeneric]
}

func match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.Uzbek
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.Uzbek
	}
	return supported[idx]
}
