package domain

import "strings"

// Meter represents one of the sixteen classical meters
type Meter struct {
	Key    string // transliterated name as the service reports it
	Arabic string
}

var meters = []Meter{
	{"taweel", "الطويل"},
	{"madeed", "المديد"},
	{"baseet", "البسيط"},
	{"wafer", "الوافر"},
	{"kamel", "الكامل"},
	{"hazaj", "الهزج"},
	{"rajaz", "الرجز"},
	{"ramal", "الرمل"},
	{"sarea", "السريع"},
	{"munsareh", "المنسرح"},
	{"khafeef", "الخفيف"},
	{"mudarae", "المضارع"},
	{"muqtadab", "المقتضب"},
	{"mujtath", "المجتث"},
	{"mutaqareb", "المتقارب"},
	{"mutadarek", "المتدارك"},
}

// GetAllMeters returns all meters
func GetAllMeters() []Meter {
	out := make([]Meter, len(meters))
	copy(out, meters)
	return out
}

// LookupMeter finds a meter by transliterated key (case-insensitive) or by
// Arabic name, with or without the definite article.
func LookupMeter(name string) (Meter, bool) {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)
	for _, m := range meters {
		if m.Key == key || m.Arabic == name || strings.TrimPrefix(m.Arabic, "ال") == name {
			return m, true
		}
	}
	return Meter{}, false
}

// Example is a sample poem users can analyse without typing one
type Example struct {
	Key   string
	Title string
	Poem  string
}

var examples = []Example{
	{
		Key:   "mutakarib",
		Title: "Mutaqārib",
		Poem:  "قَدْ أَذْكَرُ الشَّجْوَ مِنْ أَحْدَاثِ دَهْرِي\nوَتَبْكِي لَهُ الْعَيْنُ مِنْ بَعْدِ صَبْرِ",
	},
	{
		Key:   "khafif",
		Title: "Khafīf",
		Poem:  "قَرِبَتْ سَاعَةُ التَّلَاقِي فَهَيَّا\nنَمْضِ فِي دَرْبِنَا بِغَيْرِ ابْتِئَاسِ",
	},
	{
		Key:   "taweel",
		Title: "Ṭawīl",
		Poem:  "قِفا نَبكِ مِن ذِكرى حَبِيبٍ وَمَنزِلِ\nبِسِقطِ اللِّوى بَينَ الدَخولِ فَحَومَلِ",
	},
}

// GetAllExamples returns the sample poems
func GetAllExamples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples)
	return out
}

// LookupExample finds a sample poem by key
func LookupExample(key string) (Example, bool) {
	for _, e := range examples {
		if e.Key == key {
			return e, true
		}
	}
	return Example{}, false
}
