package content

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fake data served when the client has no base URL configured, so the kiosk
// can be developed and demoed without the remote API. Fake responses stay
// out of the remote-traffic counters.

func fakeLanding(clientCode string) Entity {
	return Entity{
		ID:           randomID("lp"),
		ClientID:     strings.TrimSpace(clientCode),
		Title:        "Heritage Museum",
		Description:  "Welcome to the Heritage Museum. Enter an exhibit code or scan a QR code to begin your tour.",
		DisplayImage: "/assets/demo/landing.jpg",
		UniqueURL:    "/" + strings.TrimSpace(clientCode),
		Translations: []Translation{
			{
				Language:    "english",
				Title:       "Heritage Museum",
				Description: "Welcome to the Heritage Museum. Enter an exhibit code or scan a QR code to begin your tour.",
				Audio: AudioURLs{
					Title:       "/assets/demo/audio/landing-title-en.mp3",
					Description: "/assets/demo/audio/landing-desc-en.mp3",
				},
			},
			{
				Language:    "hindi",
				Title:       "विरासत संग्रहालय",
				Description: "विरासत संग्रहालय में आपका स्वागत है। अपनी यात्रा शुरू करने के लिए प्रदर्शनी कोड दर्ज करें।",
				Audio: AudioURLs{
					Title:       "/assets/demo/audio/landing-title-hi.mp3",
					Description: "/assets/demo/audio/landing-desc-hi.mp3",
				},
			},
		},
	}
}

func fakeExhibit(code string) Entity {
	return Entity{
		ID:                 randomID("ex"),
		Code:               strings.TrimSpace(code),
		Title:              "The Bronze Gallery",
		Description:        "Cast bronze figures spanning four centuries of local craft.",
		TitleImage:         "/assets/demo/exhibit.jpg",
		Images:             []string{"/assets/demo/exhibit-1.jpg", "/assets/demo/exhibit-2.jpg"},
		AdvertisementImage: "/assets/demo/ad.jpg",
		ISLVideo:           "/assets/demo/isl.mp4",
		CreatedAt:          time.Now().UTC().Add(-30 * 24 * time.Hour),
		Translations: []Translation{
			{
				Language:    "english",
				Title:       "The Bronze Gallery",
				Description: "Cast bronze figures spanning four centuries of local craft.",
				Audio: AudioURLs{
					Title:       "/assets/demo/audio/exhibit-title-en.mp3",
					Description: "/assets/demo/audio/exhibit-desc-en.mp3",
				},
			},
			{
				Language:    "hindi",
				Title:       "कांस्य दीर्घा",
				Description: "चार शताब्दियों की स्थानीय शिल्पकला की कांस्य मूर्तियाँ।",
			},
		},
	}
}

func fakeReceipt(string) Receipt {
	return Receipt{
		Accepted: true,
		Message:  "Visitor data stored successfully",
	}
}

func randomID(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err == nil {
		return fmt.Sprintf("%s_%s", strings.TrimSpace(prefix), hex.EncodeToString(b))
	}
	return fmt.Sprintf("%s_%d", strings.TrimSpace(prefix), time.Now().UnixNano())
}
