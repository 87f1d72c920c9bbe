package analysis

// UnknownMeter is shown when the service named no meter
const UnknownMeter = "غير معروف"

// MeterLabel is the display pair for a detected meter
type MeterLabel struct {
	Primary   string
	Secondary string
}

func (m MeterLabel) String() string {
	if m.Secondary == "" {
		return m.Primary
	}
	return m.Primary + " (" + m.Secondary + ")"
}

// HasArabic reports whether s contains a rune from the Arabic block (U+0600–U+06FF)
func HasArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// ResolveMeter picks the display labels for a meter. meter is the
// transliterated name, meterAr the Arabic one. A secondary label is only
// produced when the primary came from the Arabic name.
func ResolveMeter(meter, meterAr string) MeterLabel {
	if HasArabic(meterAr) {
		label := MeterLabel{Primary: meterAr}
		if meter != "" && meter != meterAr {
			label.Secondary = meter
		}
		return label
	}

	switch {
	case meter != "":
		return MeterLabel{Primary: meter}
	case meterAr != "":
		return MeterLabel{Primary: meterAr}
	default:
		return MeterLabel{Primary: UnknownMeter}
	}
}
