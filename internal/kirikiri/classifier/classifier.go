// Package classifier maps a decoded string, plus whatever type the
// pattern recognizer already declared for it, onto the closed taxonomy.
package classifier

import (
	"strings"
	"unicode"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

// PlaceholderToken is the literal sequence the engine substitutes the
// player's name into at runtime.
const PlaceholderToken = "％名％"

// knownUIMarkers is a read-only table of exact UI-marker strings.
var knownUIMarkers = map[string]bool{
	"選択パネル": true,
}

// systemCodePrefix is the literal marker preceding an all-digit system
// code (e.g. 常：001).
const systemCodePrefix = "常："

// Classify applies the decision order (§4.4): declared type first, then a
// fixed sequence of content-based rules, default Narration.
func Classify(text string, declared model.Taxonomy) model.Taxonomy {
	if declared != "" {
		return declared
	}

	if strings.Contains(text, "_・") {
		return model.SpriteReference
	}

	if strings.HasPrefix(text, "・") && !strings.Contains(text, "_") {
		return model.PositionCode
	}

	if text == PlaceholderToken {
		return model.NamePlaceholder
	}

	if strings.Contains(text, "「") || strings.HasSuffix(text, "」") {
		return model.Dialogue
	}

	if strings.Contains(text, "『") || strings.HasSuffix(text, "』") {
		return model.EmailMessage
	}

	if strings.Contains(text, "＜") || strings.Contains(text, "＞") {
		return model.InnerThought
	}

	if isSeasonDateMarker(text) {
		return model.SeasonDateMarker
	}

	if knownUIMarkers[text] {
		return model.UIMarker
	}

	if isSystemCode(text) {
		return model.SystemCode
	}

	return model.Narration
}

// isSeasonDateMarker matches "<name>：<ascii token>" where name is a short
// (2-6 rune), all-CJK speaker-like label. The length-2 floor is what keeps
// the single-character system-code marker "常" from ever qualifying here.
func isSeasonDateMarker(text string) bool {
	if len([]rune(text)) > 10 {
		return false
	}
	parts := strings.Split(text, "：")
	if len(parts) != 2 {
		return false
	}
	name := []rune(parts[0])
	if len(name) < 2 || len(name) > 6 {
		return false
	}
	for _, r := range name {
		if r < 0x3000 || r > 0x9FFF {
			return false
		}
	}
	token := parts[1]
	if token == "" {
		return false
	}
	for _, r := range token {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// isSystemCode matches the literal "常：" prefix followed by an all-ASCII-
// digit remainder.
func isSystemCode(text string) bool {
	if !strings.HasPrefix(text, systemCodePrefix) {
		return false
	}
	rest := strings.TrimPrefix(text, systemCodePrefix)
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
