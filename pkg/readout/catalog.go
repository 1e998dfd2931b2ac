package readout

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
)

// English strings double as catalog keys.
const (
	msgPrompt           = "Tap the frame to choose a metering point."
	msgCalibrated       = "Middle gray set."
	msgMeasured         = "Metered."
	msgLuminance        = "Sample luminance: %.1f / Middle gray: %.1f"
	msgStopsReference   = "Relative exposure: 0.0 stop (reference)"
	msgStops            = "Relative exposure: %.2f stop"
	msgStopsNoLight     = "Relative exposure: -∞ stop (no light)"
	msgCalibrateHint    = "Set a face or a gray card as middle gray to make later readings easier to judge."
	msgFrameNotReady    = "The video is not ready yet. Please try again."
	msgNoSamplePoint    = "Tap the frame first to choose a point."
	msgInvalidReference = "Middle gray was set on a black spot. Set it again on a brighter point."
	msgFailed           = "Metering failed. Please try again."

	msgHighlightShoulder = "A very bright area (highlight side). On 500T this is near the shoulder."
	msgBrightKeyHigh     = "Brighter than the midtones. On a face, this leans toward a bright high key."
	msgMidtoneReference  = "Around the midtones. A good anchor for skin."
	msgShadowRetained    = "A somewhat dark area. Shadow side, but detail is still there."
	msgDeepShadow        = "A very dark area. On film, detail falls off heavily here."
)

var zoneNotes = map[meter.Zone]string{
	meter.HighlightShoulder: msgHighlightShoulder,
	meter.BrightKeyHigh:     msgBrightKeyHigh,
	meter.MidtoneReference:  msgMidtoneReference,
	meter.ShadowRetained:    msgShadowRetained,
	meter.DeepShadow:        msgDeepShadow,
}

var japanese = map[string]string{
	msgPrompt:           "画面をタップして測光ポイントを選んでください。",
	msgCalibrated:       "中間グレーを設定しました。",
	msgMeasured:         "測光しました。",
	msgLuminance:        "サンプル輝度：%.1f / 中間グレー：%.1f",
	msgStopsReference:   "相対露出：0.0 stop（ここを基準とします）",
	msgStops:            "相対露出：%.2f stop",
	msgStopsNoLight:     "相対露出：-∞ stop（光がありません）",
	msgCalibrateHint:    "顔やグレーのカードをタップして「中間グレー」に設定すると、その後の測光結果が分かりやすくなります。",
	msgFrameNotReady:    "ビデオがまだ準備できていません。もう一度試してください。",
	msgNoSamplePoint:    "先に画面をタップしてポイントを選択してください。",
	msgInvalidReference: "中間グレーが真っ黒な点に設定されています。もっと明るい点で設定し直してください。",
	msgFailed:           "測光に失敗しました。もう一度試してください。",

	msgHighlightShoulder: "かなり明るい領域です（ハイライト側）。500T ならハイライト肩に近いイメージ。",
	msgBrightKeyHigh:     "中間調より明るめの領域です。顔なら「明るめハイキー」寄り。",
	msgMidtoneReference:  "中間調付近の領域です。肌の基準にはこのあたりが目安になります。",
	msgShadowRetained:    "やや暗めの領域です。シャドー側ですがまだ情報は残っています。",
	msgDeepShadow:        "かなり暗い領域です。フィルムならディテールはだいぶ落ちてくるゾーン。",
}

func init() {
	for key, msg := range japanese {
		if err := message.SetString(language.Japanese, key, msg); err != nil {
			panic(err)
		}
	}
}
